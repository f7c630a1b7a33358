package kuasap

import (
	"kuasap-backend/lib/restyutil"
	"kuasap-backend/lib/telemetry"
)

var tracer = telemetry.Tracer("kuasap.lib.scrapers.kuasap")
var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput makes every client created afterwards dump its
// request transcripts to out while debug logging is enabled.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
