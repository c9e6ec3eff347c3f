package runtime

import (
	"time"

	"go.opentelemetry.io/otel"

	"github.com/aretw0/parley/pkg/domain"
)

const scopeName = "github.com/aretw0/parley/internal/runtime"

var tracer = otel.Tracer(scopeName)

func newHookBase(t domain.HookType, ev domain.EventType) domain.HookBase {
	return domain.HookBase{Timestamp: time.Now(), Type: t, Event: ev}
}
