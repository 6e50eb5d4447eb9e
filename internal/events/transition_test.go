package events

import (
	"context"
	"testing"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
)

func TestForTransition(t *testing.T) {
	cases := []struct {
		name string
		old  rolloutv1alpha1.RolloutPhase
		new  rolloutv1alpha1.RolloutPhase
		want []Type
	}{
		{
			name: "initializing to progressing",
			old:  "",
			new:  rolloutv1alpha1.RolloutPhaseProgressing,
			want: []Type{TypeServiceDeployed},
		},
		{
			name: "initializing straight to completed (simple strategy)",
			old:  rolloutv1alpha1.RolloutPhaseInitializing,
			new:  rolloutv1alpha1.RolloutPhaseCompleted,
			want: []Type{TypeServiceDeployed, TypeServicePublished},
		},
		{
			name: "progressing to completed",
			old:  rolloutv1alpha1.RolloutPhaseProgressing,
			new:  rolloutv1alpha1.RolloutPhaseCompleted,
			want: []Type{TypeServicePublished},
		},
		{
			name: "progressing to failed",
			old:  rolloutv1alpha1.RolloutPhaseProgressing,
			new:  rolloutv1alpha1.RolloutPhaseFailed,
			want: []Type{TypeServiceRolledback},
		},
		{
			name: "experimenting to concluded",
			old:  rolloutv1alpha1.RolloutPhaseExperimenting,
			new:  rolloutv1alpha1.RolloutPhaseConcluded,
			want: []Type{TypeServiceUpgraded},
		},
		{
			name: "paused to progressing (step advance)",
			old:  rolloutv1alpha1.RolloutPhasePaused,
			new:  rolloutv1alpha1.RolloutPhaseProgressing,
			want: []Type{TypeServiceUpgraded},
		},
		{
			name: "no-op transition",
			old:  rolloutv1alpha1.RolloutPhaseProgressing,
			new:  rolloutv1alpha1.RolloutPhaseProgressing,
			want: nil,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ForTransition(c.old, c.new, rolloutv1alpha1.StrategyCanary)
			if len(got) != len(c.want) {
				t.Fatalf("ForTransition(%s, %s) = %v, want %v", c.old, c.new, got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("ForTransition(%s, %s)[%d] = %v, want %v", c.old, c.new, i, got[i], c.want[i])
				}
			}
		})
	}
}

func TestNoopSinkDoesNotPanic(t *testing.T) {
	var s Sink = NoopSink{}
	s.Send(context.Background(), Envelope{
		Type:    TypeServiceDeployed,
		Subject: Subject{ID: "default/demo"},
	})
}
