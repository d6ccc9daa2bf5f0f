/*
PubSub+ Topology Reconciler
Copyright 2024 The PubSub+ Topology Reconciler Authors

This product is licensed to you under the Mozilla Public License 2.0 license (the "License").  You may not use this product except in compliance with the Mozilla 2.0 License.

This product may include a number of subcomponents with separate copyright notices and license terms. Your use of these subcomponents is subject to the terms and conditions of the subcomponent's license, as noted in the LICENSE file.
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/solace-community/pubsubplus-topology/controllers"
	"github.com/solace-community/pubsubplus-topology/internal/conf"
)

var log = ctrl.Log.WithName("setup")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// failed tasks are reported in the results
		if !errors.Is(err, controllers.ErrTaskFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		verbosity  int
		configFile string
	)
	opts := zap.Options{Development: true}
	goFlags := flag.NewFlagSet("logging", flag.ContinueOnError)
	opts.BindFlags(goFlags)

	source := conf.NewSource()
	root := &cobra.Command{
		Use:           "pubsubplus-topology",
		Short:         "Reconcile Solace PubSub+ brokers and Solace Cloud services to a declared state",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if verbosity > 0 {
				opts.Level = zapcore.Level(-verbosity)
			}
			logger := zap.New(zap.UseFlagOptions(&opts), zap.WriteTo(cmd.ErrOrStderr()))
			ctrl.SetLogger(logger)
			klog.SetLogger(logger)

			if configFile != "" {
				source.SetConfigFile(configFile)
			}
			return conf.Load(source)
		},
	}
	root.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "Log verbosity, 1 logs requests and responses")
	root.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file, default ./pubsubplus-topology.yaml")
	root.PersistentFlags().AddGoFlagSet(goFlags)
	root.PersistentFlags().AddFlagSet(source.Flags())

	root.AddCommand(newApplyCommand())
	root.AddCommand(newKindsCommand())
	return root
}
