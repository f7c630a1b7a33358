package ap

import (
	"kuasap-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("kuasap.services.ap")
var meter = telemetry.Meter("kuasap.services.ap")
