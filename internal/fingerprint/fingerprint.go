// Package fingerprint computes the stable pod-template fingerprint used to
// name and compare revisions.
package fingerprint

import (
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
	corev1 "k8s.io/api/core/v1"
)

var printer = spew.ConfigState{
	Indent:         " ",
	SortKeys:       true,
	DisableMethods: true,
	SpewKeys:       true,
}

// PodTemplate returns the 32-bit FNV-1a fingerprint of template, rendered as
// a fixed 6-hex-digit lowercase string. Two templates that differ only in
// field order or map iteration order still fingerprint identically because
// spew.ConfigState sorts map keys before writing.
func PodTemplate(template *corev1.PodTemplateSpec) string {
	hasher := fnv.New32a()
	deepHashObject(hasher, *template)
	return fmt.Sprintf("%06x", hasher.Sum32()&0xFFFFFF)
}

func deepHashObject(hasher hash.Hash, objectToWrite interface{}) {
	hasher.Reset()
	printer.Fprintf(hasher, "%#v", objectToWrite)
}
