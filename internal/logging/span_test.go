package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
)

type remedyErr struct{}

func (remedyErr) Error() string  { return "no openssl" }
func (remedyErr) Remedy() string { return "install openssl" }

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestSpan(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
		remedy  string
	}{
		{name: "ok", wantMsg: "Cert:Provision/eok"},
		{name: "fail", err: errors.New("boom"), wantMsg: "Cert:Provision/efail"},
		{name: "wrapped remedy", err: fmt.Errorf("generate: %w", remedyErr{}), wantMsg: "Cert:Provision/efail", remedy: "install openssl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx := WithLogger(context.Background(), New(FormatJSON, slog.LevelInfo, &buf))
			ctx, end := Span(ctx, "Cert", "Provision", "subject", "*.localdev.me")
			FromContext(ctx).Info(ctx, "inner")
			end(tt.err, "days", 365)

			recs := records(t, &buf)
			if len(recs) != 3 {
				t.Fatalf("got %d records, want 3", len(recs))
			}
			if recs[0]["msg"] != "Cert:Provision/s" || recs[1]["subject"] != "*.localdev.me" {
				t.Errorf("span context not carried: %v", recs[:2])
			}
			last := recs[2]
			if last["msg"] != tt.wantMsg || last["days"] != float64(365) {
				t.Errorf("closing record = %v", last)
			}
			if _, ok := last["elapsed"]; !ok {
				t.Error("elapsed missing")
			}
			if tt.remedy != "" && last["remedy"] != tt.remedy {
				t.Errorf("remedy = %v, want %q", last["remedy"], tt.remedy)
			}
		})
	}
}

func TestCommandSpan(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(FormatJSON, slog.LevelInfo, &buf))
	_, end := CommandSpan(ctx, "setup", "resourceId", "localdev.me")
	end(nil)
	recs := records(t, &buf)
	if len(recs) != 2 || recs[0]["msg"] != "CMD:setup/S" || recs[1]["msg"] != "CMD:setup/EOK" {
		t.Errorf("unexpected records %v", recs)
	}
}
