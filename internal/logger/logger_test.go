package logger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/raghavpatnecha/ragserve/internal/types"
	"github.com/sirupsen/logrus"
)

func TestCustomFormatterIncludesRequestIDFirstAndSortsOtherFields(t *testing.T) {
	f := &CustomFormatter{}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "something happened",
		Data: logrus.Fields{
			"request_id": "r1",
			"zeta":       1,
			"alpha":      2,
		},
	}
	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	line := string(out)
	if !strings.Contains(line, "request_id=r1") {
		t.Errorf("expected request_id in the formatted line, got %q", line)
	}
	if strings.Index(line, "alpha=2") > strings.Index(line, "zeta=1") {
		t.Errorf("expected non-request_id fields sorted alphabetically, got %q", line)
	}
	if !strings.Contains(line, "something happened") {
		t.Errorf("expected the message in the formatted line, got %q", line)
	}
}

func TestCustomFormatterOmitsColorCodesWhenNotForced(t *testing.T) {
	f := &CustomFormatter{ForceColor: false}
	entry := &logrus.Entry{Time: time.Now(), Level: logrus.ErrorLevel, Message: "boom", Data: logrus.Fields{}}
	out, _ := f.Format(entry)
	if strings.Contains(string(out), "\033[") {
		t.Error("expected no ANSI color codes when ForceColor is false")
	}
}

func TestGetLoggerReturnsStoredLoggerFromContext(t *testing.T) {
	base := context.Background()
	withField := WithField(base, "key", "value")

	entry := GetLogger(withField)
	if entry.Data["key"] != "value" {
		t.Errorf("expected the stored logger's field to carry over, got %v", entry.Data)
	}
}

func TestGetLoggerReturnsAFreshLoggerWhenNoneStored(t *testing.T) {
	entry := GetLogger(context.Background())
	if entry == nil {
		t.Fatal("expected a non-nil fallback logger")
	}
}

func TestWithRequestIDSetsTheRequestIDField(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	entry := GetLogger(ctx)
	if entry.Data["request_id"] != "req-123" {
		t.Errorf("expected request_id field set, got %v", entry.Data)
	}
}

func TestCloneContextCarriesOnlyKnownKeys(t *testing.T) {
	ctx := context.WithValue(context.Background(), types.TenantIDContextKey, "tenant-1")
	ctx = context.WithValue(ctx, types.ContextKey("unrelated"), "should not carry over")

	cloned := CloneContext(ctx)
	if cloned.Value(types.TenantIDContextKey) != "tenant-1" {
		t.Error("expected tenant id to be carried into the cloned context")
	}
	if cloned.Value(types.ContextKey("unrelated")) != nil {
		t.Error("expected an unrelated context key not to be carried over")
	}
}

func TestSetLogLevelAppliesKnownLevelsAndDefaultsUnknownToInfo(t *testing.T) {
	SetLogLevel(LevelError)
	if logrus.GetLevel() != logrus.ErrorLevel {
		t.Errorf("expected error level, got %v", logrus.GetLevel())
	}
	SetLogLevel(LogLevel("bogus"))
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected an unrecognized level to default to info, got %v", logrus.GetLevel())
	}
}
