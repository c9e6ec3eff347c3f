/*
Package parley is a hierarchical, event-driven dialogue manager.

A dialogue is described as a statechart: compound, parallel, final and
history states connected by guarded transitions. The interpreter consumes
one event at a time, runs it to completion and returns the commands the
host must carry out (SPEAK, LISTEN, INVOKE, CANCEL). Speech, recognition,
language understanding and knowledge lookups are collaborators behind the
interfaces in pkg/ports; the interpreter itself performs no I/O.

# Usage

	c := dialogue.MustAppointment()
	eng := parley.New(c, parley.WithLogger(logger))

	// One conversation driven by real collaborators.
	sess := eng.NewSession("demo",
		runner.WithSpeaker(tts),
		runner.WithRecognizer(asr),
		runner.WithUnderstander(nlu),
		runner.WithInvoker(dialogue.KnowledgeSrc, ports.LookupInvoker(kb)),
	)
	if err := sess.Run(ctx); err != nil {
		log.Fatal(err)
	}

	// Many conversations driven by a remote client.
	mgr := eng.NewManager()
	turn, _ := mgr.Create(ctx)
	turn, _ = mgr.Send(ctx, turn.SessionID, domain.NewEvent(domain.EventClick))

Charts are built with pkg/dsl and validated by pkg/chart before an engine
ever sees them.
*/
package parley
