/*
Package runner connects an interpreter to its collaborators.

A Session owns one interpreter and a buffered intake queue. Collaborator
goroutines never call the interpreter: they Post events, and Run feeds them
to Send one at a time. Commands emitted by the interpreter are dispatched
back out:

  - SPEAK is queued on a single speech worker that plays prompts in order
    and posts ENDSPEECH after each one.
  - LISTEN arms the recognizer under the silence timeout. A recognition is
    sanitised, enriched by the understander and posted as RECOGNISED; a
    deadline posts TIMEOUT.
  - INVOKE starts a cancellable worker for the invocation source; its result
    comes back as done.invoke or error.invoke.
  - CANCEL aborts the matching worker.

# Usage

	s := runner.NewSession(interp,
		runner.WithSpeaker(term),
		runner.WithRecognizer(term),
		runner.WithUnderstander(nlu),
		runner.WithInvoker(dialogue.KnowledgeSrc, ports.LookupInvoker(kb)),
		runner.WithSilenceTimeout(8*time.Second),
	)

	if err := s.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
