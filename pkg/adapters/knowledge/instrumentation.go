package knowledge

import "go.opentelemetry.io/otel"

const scopeName = "github.com/aretw0/parley/pkg/adapters/knowledge"

var tracer = otel.Tracer(scopeName)
