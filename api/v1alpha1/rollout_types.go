/*
Copyright 2022 Kruise Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Annotations recognized by the rollout controller. They are read fresh on
// every reconcile rather than cached.
const (
	// AnnotationPromote forces the current pause step to end immediately.
	AnnotationPromote = "kulta.io/promote"
	// AnnotationConcludeExperiment forces an A/B experiment to conclude on the
	// next reconcile regardless of sample size or elapsed duration.
	AnnotationConcludeExperiment = "kulta.io/conclude-experiment"
)

// Labels stamped onto every ReplicaSet this controller owns.
const (
	LabelPodTemplateHash = "rollouts.kulta.io/pod-template-hash"
	LabelRole             = "rollouts.kulta.io/role"
	LabelManaged          = "rollouts.kulta.io/managed"
)

// RolloutSpec defines the desired state of a Rollout.
type RolloutSpec struct {
	// Replicas is the total desired pod count across all revisions this
	// rollout manages.
	// +kubebuilder:validation:Minimum=0
	Replicas *int32 `json:"replicas,omitempty"`

	// Selector identifies the pods this rollout manages. Immutable after
	// creation.
	Selector *metav1.LabelSelector `json:"selector"`

	// Template is the pod template for the revision currently being rolled
	// out. Its fingerprint (see status.canaryRevisionHash) drives revision
	// comparisons; its contents are otherwise opaque to the controller.
	Template corev1.PodTemplateSpec `json:"template"`

	// Strategy selects exactly one of Canary, BlueGreen, ABTesting or Simple.
	Strategy RolloutStrategy `json:"strategy"`

	// Advisor configures an optional AI advisory consultation alongside the
	// threshold health decision for Canary steps. The advisor never
	// overrides the threshold outcome; its recommendation is only logged
	// and recorded as an occurrence.
	// +optional
	Advisor *AdvisorConfig `json:"advisor,omitempty"`
}

// AdvisorLevel controls whether and how an external advisory service is
// consulted alongside the threshold health decision.
type AdvisorLevel string

const (
	// AdvisorLevelOff never consults an advisor.
	AdvisorLevelOff AdvisorLevel = "Off"
	// AdvisorLevelContext is reserved for a future mode that records
	// decision context without calling out; behaves as Off today.
	AdvisorLevelContext AdvisorLevel = "Context"
	// AdvisorLevelAdvised calls the advisor and logs its recommendation
	// alongside the threshold decision, which always prevails.
	AdvisorLevelAdvised AdvisorLevel = "Advised"
	// AdvisorLevelPlanned and AdvisorLevelDriven are reserved for future
	// modes where the advisor's recommendation shapes planning ahead of the
	// threshold decision; both currently behave as Advised.
	AdvisorLevelPlanned AdvisorLevel = "Planned"
	AdvisorLevelDriven  AdvisorLevel = "Driven"
)

// AdvisorConfig configures the advisory consultation. Endpoint must be set
// for any level other than Off/Context — a configured level with no
// endpoint falls back to no-op, logged as a misconfiguration.
type AdvisorConfig struct {
	// +kubebuilder:default=Off
	Level AdvisorLevel `json:"level,omitempty"`
	// +optional
	Endpoint string `json:"endpoint,omitempty"`
	// +kubebuilder:default=5
	TimeoutSeconds int64 `json:"timeoutSeconds,omitempty"`
}

// RolloutStrategy holds exactly one populated strategy branch.
type RolloutStrategy struct {
	// +optional
	Canary *CanaryStrategy `json:"canary,omitempty"`
	// +optional
	BlueGreen *BlueGreenStrategy `json:"blueGreen,omitempty"`
	// +optional
	ABTesting *ABTestingStrategy `json:"abTesting,omitempty"`
	// +optional
	Simple *SimpleStrategy `json:"simple,omitempty"`
}

// CanaryStrategy ramps a new revision up through an ordered list of
// weight/pause steps before promoting it to stable.
type CanaryStrategy struct {
	StableService string `json:"stableService"`
	CanaryService string `json:"canaryService"`
	// +kubebuilder:default=80
	Port int32 `json:"port,omitempty"`
	// +kubebuilder:validation:MinItems=1
	Steps          []CanaryStep    `json:"steps"`
	TrafficRouting *TrafficRouting `json:"trafficRouting,omitempty"`
	Analysis       *AnalysisConfig `json:"analysis,omitempty"`
}

// CanaryStep is one entry of a canary ramp.
type CanaryStep struct {
	// SetWeight is the percentage of traffic the canary revision should
	// receive once this step is active, 0-100.
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=100
	SetWeight int32 `json:"setWeight"`
	// +optional
	Pause *RolloutPause `json:"pause,omitempty"`
}

// RolloutPause holds how long a step should hold before auto-advancing.
// Duration accepts a single unit suffix: s (max 86400), m (max 1440), or h
// (max 168). Omit it for a pause that only ends via the promote annotation.
type RolloutPause struct {
	// +optional
	Duration string `json:"duration,omitempty"`
}

// BlueGreenStrategy keeps the new revision fully scaled behind a preview
// service and cuts all traffic over to it on promotion.
type BlueGreenStrategy struct {
	ActiveService  string          `json:"activeService"`
	PreviewService string          `json:"previewService"`
	Port           int32           `json:"port,omitempty"`
	AutoPromotionEnabled bool      `json:"autoPromotionEnabled,omitempty"`
	TrafficRouting *TrafficRouting `json:"trafficRouting,omitempty"`
}

// ABTestingStrategy runs two revisions side by side behind a match rule and
// statistically compares their metrics before concluding a winner.
type ABTestingStrategy struct {
	VariantAService string `json:"variantAService"`
	VariantBService string `json:"variantBService"`
	Port            int32  `json:"port,omitempty"`
	// MaxDuration bounds the experiment regardless of significance, same
	// unit rules as RolloutPause.Duration.
	MaxDuration    string           `json:"maxDuration,omitempty"`
	VariantBMatch  *ABMatch         `json:"variantBMatch,omitempty"`
	TrafficRouting *TrafficRouting  `json:"trafficRouting,omitempty"`
	Analysis       *ABAnalysisConfig `json:"analysis,omitempty"`
}

// ABMatch selects which requests are routed to variant B. Exactly one of
// Header or Cookie should be set.
type ABMatch struct {
	Header      string `json:"header,omitempty"`
	HeaderValue string `json:"headerValue,omitempty"`
	Cookie      string `json:"cookie,omitempty"`
	CookieValue string `json:"cookieValue,omitempty"`
}

// SimpleStrategy scales a single ReplicaSet directly to spec.replicas with no
// intermediate steps.
type SimpleStrategy struct {
	Analysis *AnalysisConfig `json:"analysis,omitempty"`
}

// TrafficRouting names the external route object this controller patches.
type TrafficRouting struct {
	GatewayAPI *GatewayAPITrafficRouting `json:"gatewayAPI,omitempty"`
}

// GatewayAPITrafficRouting references a Gateway API HTTPRoute whose first
// rule's backendRefs this controller owns.
type GatewayAPITrafficRouting struct {
	HTTPRoute string `json:"httpRoute"`
}

// FailurePolicy decides what happens when a metric violates its threshold.
type FailurePolicy string

const (
	FailurePolicyPause    FailurePolicy = "Pause"
	FailurePolicyContinue FailurePolicy = "Continue"
	FailurePolicyRollback FailurePolicy = "Rollback"
)

// MetricQuery names a built-in query template.
type MetricQuery string

const (
	MetricQueryErrorRate  MetricQuery = "error-rate"
	MetricQueryLatencyP95 MetricQuery = "latency-p95"
)

// AnalysisConfig configures threshold-based health evaluation for Canary and
// Simple strategies.
type AnalysisConfig struct {
	// WarmupDuration delays the first evaluation after a step starts (or,
	// absent any step, after the revision's ReplicaSet was created).
	WarmupDuration string `json:"warmupDuration,omitempty"`
	// +kubebuilder:default=Pause
	FailurePolicy FailurePolicy `json:"failurePolicy,omitempty"`
	// +kubebuilder:validation:MinItems=1
	Metrics []MetricRule `json:"metrics"`
}

// MetricRule is one threshold check.
type MetricRule struct {
	Name      string      `json:"name"`
	Query     MetricQuery `json:"query"`
	Threshold string      `json:"threshold"`
}

// ABAnalysisConfig configures the statistical comparison driving an A/B
// experiment's conclusion: a single two-proportion Z-test over each
// variant's conversion count and sample count.
type ABAnalysisConfig struct {
	MinDuration string `json:"minDuration,omitempty"`
	// +kubebuilder:default=30
	MinSampleSize int64 `json:"minSampleSize,omitempty"`
	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=1
	ConfidenceLevel float64 `json:"confidenceLevel"`
}

// RolloutPhase is a node of the phase lattice every strategy drives through.
type RolloutPhase string

const (
	RolloutPhaseInitializing  RolloutPhase = "Initializing"
	RolloutPhaseProgressing   RolloutPhase = "Progressing"
	RolloutPhasePaused        RolloutPhase = "Paused"
	RolloutPhasePreview       RolloutPhase = "Preview"
	RolloutPhaseExperimenting RolloutPhase = "Experimenting"
	RolloutPhaseConcluded     RolloutPhase = "Concluded"
	RolloutPhaseCompleted     RolloutPhase = "Completed"
	RolloutPhaseFailed        RolloutPhase = "Failed"
)

// RolloutConditionType enumerates condition types this controller writes.
type RolloutConditionType string

const (
	RolloutConditionProgressing RolloutConditionType = "Progressing"
	RolloutConditionHealthy     RolloutConditionType = "Healthy"
)

// RolloutCondition describes the state of a rollout at a point in time.
type RolloutCondition struct {
	Type               RolloutConditionType  `json:"type"`
	Status             corev1.ConditionStatus `json:"status"`
	LastUpdateTime     metav1.Time            `json:"lastUpdateTime,omitempty"`
	LastTransitionTime metav1.Time            `json:"lastTransitionTime,omitempty"`
	Reason             string                 `json:"reason"`
	Message            string                 `json:"message"`
}

// ABExperimentResult is the last evaluation snapshot of an A/B experiment's
// two-proportion Z-test, retained on the status so the Occurrence Writer can
// explain a conclusion.
type ABExperimentResult struct {
	// +optional
	Winner             string       `json:"winner,omitempty"`
	Reason             string       `json:"reason,omitempty"`
	ConversionsA       int64        `json:"conversionsA"`
	SampleSizeA        int64        `json:"sampleSizeA"`
	ConversionsB       int64        `json:"conversionsB"`
	SampleSizeB        int64        `json:"sampleSizeB"`
	ZScore             float64      `json:"zScore"`
	PValue             float64      `json:"pValue"`
	AchievedConfidence float64      `json:"achievedConfidence"`
	ConcludedAt        *metav1.Time `json:"concludedAt,omitempty"`
}

// RolloutStatus is the observed, controller-owned state of a Rollout.
type RolloutStatus struct {
	ObservedGeneration int64        `json:"observedGeneration,omitempty"`
	Phase              RolloutPhase `json:"phase,omitempty"`
	Message            string       `json:"message,omitempty"`

	CurrentStepIndex int32 `json:"currentStepIndex"`
	CurrentWeight    int32 `json:"currentWeight"`

	PauseStartTime      *metav1.Time `json:"pauseStartTime,omitempty"`
	ExperimentStartTime *metav1.Time `json:"experimentStartTime,omitempty"`

	StableRevisionHash string `json:"stableRevisionHash,omitempty"`
	CanaryRevisionHash string `json:"canaryRevisionHash,omitempty"`

	// ConsecutiveMetricsErrors counts back-to-back MetricsUnavailable
	// results; the controller does not cache this in memory, only here.
	ConsecutiveMetricsErrors int32 `json:"consecutiveMetricsErrors,omitempty"`

	ABResult *ABExperimentResult `json:"abResult,omitempty"`

	// +optional
	Conditions []RolloutCondition `json:"conditions,omitempty"`
}

// +genclient
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Weight",type=integer,JSONPath=`.status.currentWeight`

// Rollout is the schema for the rollouts API.
type Rollout struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   RolloutSpec   `json:"spec,omitempty"`
	Status RolloutStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// RolloutList contains a list of Rollout.
type RolloutList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Rollout `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Rollout{}, &RolloutList{})
}
