/*
Package dialogue holds the building blocks of spoken slot-filling
conversations and the appointment chart assembled from them.

A Slot expands into a composite state that prompts with escalating
variants, listens, grounds low-confidence recognitions with an explicit
"Did you say ...?" question, interprets the answer through ordered rules and
escalates unrecognised answers until it forces a restart.

	slot
	├── prompt      choose -> p1 | p2 | p3 | restart   (promptCount 0/1/2/3)
	├── ask         LISTEN
	├── confidenceCheck
	│   ├── threshold   confidence >= 0.7 -> transition, else prompt
	│   ├── prompt      "Did you say <utterance>?"
	│   ├── ask         LISTEN
	│   └── apologise   -> slot.prompt
	├── transition  ordered rules over the stored hypothesis, else nomatch
	└── nomatch     choose -> n1 | n2 | n3 -> restart  (noMatchCount 0/1/2)

Counters live in Context slots scoped by the slot alias and are reset each
time the composite is entered. TIMEOUT re-prompts without resetting them.
*/
package dialogue
