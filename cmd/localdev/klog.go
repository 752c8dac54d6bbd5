package main

import (
	"flag"
	"io"

	klog "k8s.io/klog/v2"
)

// quietKlog drops klog output from client-go (throttling notices, warnings)
// so command output stays readable. Failures still surface as errors.
func quietKlog() {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	_ = fs.Set("logtostderr", "false")
	_ = fs.Set("alsologtostderr", "false")
	_ = fs.Set("stderrthreshold", "FATAL")
	_ = fs.Set("skip_log_headers", "true")
	klog.SetOutput(io.Discard)
}
