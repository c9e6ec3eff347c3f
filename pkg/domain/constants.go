package domain

// Inbound event types understood by the dialogue charts.
const (
	EventRecognised EventType = "RECOGNISED"
	EventTimeout    EventType = "TIMEOUT"
	EventEndSpeech  EventType = "ENDSPEECH"
	EventClick      EventType = "CLICK"
	EventTTSReady   EventType = "TTS_READY"

	// EventInvokeDone and EventInvokeError carry an InvocationResult.
	EventInvokeDone  EventType = "done.invoke"
	EventInvokeError EventType = "error.invoke"
)

// Reserved transition patterns.
const (
	// EventAlways keys eventless transitions. Sending it from outside is a no-op.
	EventAlways EventType = "$always"
	// EventAny matches every external event type.
	EventAny EventType = "*"
)

// Outbound command types.
const (
	CommandSpeak  CommandType = "SPEAK"
	CommandListen CommandType = "LISTEN"
	CommandInvoke CommandType = "INVOKE"
	CommandCancel CommandType = "CANCEL"
)

// Intents the grounding sub-protocol relies on.
const (
	IntentAffirm = "Affirm"
	IntentReject = "Reject"
)
