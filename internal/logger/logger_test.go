package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestCustomFormatterPutsRequestIDFirst(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.InfoLevel,
		Message: "handled request",
		Data:    logrus.Fields{"request_id": "req-1", "zebra": "z", "apple": "a"},
	}
	out, err := (&CustomFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	line := string(out)

	reqIdx := strings.Index(line, "request_id=req-1")
	appleIdx := strings.Index(line, "apple=a")
	zebraIdx := strings.Index(line, "zebra=z")
	if reqIdx == -1 || appleIdx == -1 || zebraIdx == -1 {
		t.Fatalf("missing expected fields in formatted line: %q", line)
	}
	if !(reqIdx < appleIdx && appleIdx < zebraIdx) {
		t.Errorf("expected request_id before sorted fields (apple before zebra): %q", line)
	}
	if !strings.Contains(line, "handled request") {
		t.Errorf("expected message in output: %q", line)
	}
}

func TestCustomFormatterOmitsColorWhenForceColorFalse(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Level:   logrus.ErrorLevel,
		Message: "boom",
		Data:    logrus.Fields{},
	}
	out, err := (&CustomFormatter{ForceColor: false}).Format(entry)
	if err != nil {
		t.Fatalf("Format returned error: %v", err)
	}
	if strings.Contains(string(out), colorRed) {
		t.Error("expected no ANSI color codes when ForceColor is false")
	}
}

func TestGetLoggerReturnsFreshLoggerWhenNoneAttached(t *testing.T) {
	entry := GetLogger(context.Background())
	if entry == nil {
		t.Fatal("GetLogger returned nil")
	}
	if entry.Logger.Level != logrus.DebugLevel {
		t.Errorf("fresh logger level = %v, want debug", entry.Logger.Level)
	}
}

func TestWithRequestIDAttachesFieldRetrievableByGetLogger(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-42")
	entry := GetLogger(ctx)
	if got := entry.Data["request_id"]; got != "req-42" {
		t.Errorf("request_id field = %v, want req-42", got)
	}
}
