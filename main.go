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

package main

import (
	"flag"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	coordinationv1 "k8s.io/api/coordination/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/klogr"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	gatewayv1beta1 "sigs.k8s.io/gateway-api/apis/v1beta1"

	rolloutv1alpha1 "github.com/kulta-io/kulta/api/v1alpha1"
	"github.com/kulta-io/kulta/internal/advisor"
	kclock "github.com/kulta-io/kulta/internal/clock"
	"github.com/kulta-io/kulta/internal/events"
	"github.com/kulta-io/kulta/internal/leader"
	"github.com/kulta-io/kulta/internal/metrics"
	"github.com/kulta-io/kulta/internal/occurrence"
	"github.com/kulta-io/kulta/pkg/controller/rollout"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(rolloutv1alpha1.AddToScheme(scheme))
	utilruntime.Must(gatewayv1beta1.AddToScheme(scheme))
	utilruntime.Must(coordinationv1.AddToScheme(scheme))
}

// runtimeConfig holds everything that varies by deployment environment,
// read once at startup via envconfig rather than threaded through flags.
type runtimeConfig struct {
	PrometheusAddress string `envconfig:"PROMETHEUS_ADDRESS"`
	EventSinkURL      string `envconfig:"EVENT_SINK_URL"`
	EventSinkRate     float64 `envconfig:"EVENT_SINK_RATE" default:"5"`
	OccurrenceDir     string `envconfig:"OCCURRENCE_DIR"`
	PodName           string `envconfig:"POD_NAME" default:"kulta-controller"`
}

func main() {
	var metricsAddr string
	var enableLeaderElection bool
	var probeAddr string
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	ctrl.SetLogger(klogr.New())

	var cfg runtimeConfig
	if err := envconfig.Process("kulta", &cfg); err != nil {
		setupLog.Error(err, "unable to parse runtime configuration")
		os.Exit(1)
	}

	restCfg := ctrl.GetConfigOrDie()
	restCfg.UserAgent = "kulta-rollout-controller"

	mgr, err := ctrl.NewManager(restCfg, ctrl.Options{
		Scheme:                 scheme,
		MetricsBindAddress:     metricsAddr,
		Port:                   9443,
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "kulta-rollout-controller.kulta.io",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	var sink events.Sink = events.NoopSink{}
	if cfg.EventSinkURL != "" {
		httpSink, err := events.NewHTTPSink(cfg.EventSinkURL, cfg.EventSinkRate)
		if err != nil {
			setupLog.Error(err, "unable to build event sink")
			os.Exit(1)
		}
		sink = httpSink
	}

	var querier metrics.Querier
	if cfg.PrometheusAddress != "" {
		querier = metrics.NewHTTPQuerier(cfg.PrometheusAddress)
	}

	leaderGate := leader.New(mgr.GetClient(), os.Getenv("POD_NAMESPACE"), cfg.PodName)

	if err = (&rollout.RolloutReconciler{
		Client:     mgr.GetClient(),
		Scheme:     mgr.GetScheme(),
		Recorder:   mgr.GetEventRecorderFor("rollout-controller"),
		Clock:      kclock.RealClock{},
		Leader:     leaderGate,
		LeaseName:  leader.Name("rollout-controller"),
		Querier:      querier,
		Sink:         sink,
		Occurrence:   occurrence.NewWriter(cfg.OccurrenceDir),
		AdvisorCache: advisor.NewCache(),
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Rollout")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
