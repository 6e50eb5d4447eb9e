package main

import (
	"fmt"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/pointer"
	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/validation"
)

func main() {
	r := &rolloutv1alpha1.Rollout{
		ObjectMeta: metav1.ObjectMeta{Name: "demo", Namespace: "default", Generation: 1},
		Spec: rolloutv1alpha1.RolloutSpec{
			Replicas: pointer.Int32(10),
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"app": "demo"}},
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "app", Image: "demo:v1"}}},
			},
			Strategy: rolloutv1alpha1.RolloutStrategy{
				Canary: &rolloutv1alpha1.CanaryStrategy{
					StableService: "demo-stable",
					CanaryService: "demo-canary",
					Steps: []rolloutv1alpha1.CanaryStep{
						{SetWeight: 20, Pause: &rolloutv1alpha1.RolloutPause{Duration: "1m"}},
						{SetWeight: 100},
					},
				},
			},
		},
	}
	err := validation.Validate(r)
	fmt.Println("err:", err)
}
