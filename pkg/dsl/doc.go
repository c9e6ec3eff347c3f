/*
Package dsl provides a fluent Go API for declaring parley charts.

Charts are plain Go values: guards and actions are functions, so a chart
definition is type-checked and testable like any other code.

Example usage:

	b := dsl.New("door").Initial("closed")

	b.State("closed").
		On("OPEN", "opened", dsl.Speak("Opening."))

	b.State("opened").
		Entry(dsl.Listen()).
		OnIf("CLOSE", dsl.Guard("allowed", allowed), "closed").
		On(domain.EventTimeout, "closed")

	c, err := b.Build() // *chart.Chart, validated
*/
package dsl
