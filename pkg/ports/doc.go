/*
Package ports defines the boundary contracts between the dialogue engine and
its collaborators.

The interpreter never talks to devices or services directly. It emits
commands (SPEAK, LISTEN, INVOKE, CANCEL) and consumes events. The runner
translates between the two using the interfaces declared here.

# Key Interfaces

  - Speaker: plays a spoken prompt and returns when playback ends (ENDSPEECH).
  - Recognizer: captures one user turn (RECOGNISED or TIMEOUT).
  - Understander: enriches a transcript with intent and entities.
  - KnowledgeBase: answers "who is" lookups for async invocations.
  - Interpreter: the engine contract used by the runner, session manager and HTTP adapter.
*/
package ports
