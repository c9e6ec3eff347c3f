/*
Package console plays the speech collaborators on a terminal.

Terminal prints prompts instead of synthesising them and reads typed lines
instead of recognising speech. A line may start with a confidence in
brackets ("[0.4] friday") to exercise the grounding questions. Lines typed
while nobody listens become CLICK triggers, so pressing Enter starts the
conversation.
*/
package console
