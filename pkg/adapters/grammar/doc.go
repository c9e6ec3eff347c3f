/*
Package grammar is a rule-based Understander.

A Grammar maps utterances to a top intent and entities with regular
expressions loaded from YAML. It is small on purpose: enough to drive the
appointment dialogue from a console or in tests without a cloud NLU service.

	intents:
	  - name: Affirm
	    patterns: ['^(yes|sure)\b']
	entities:
	  - category: dateTime
	    patterns: ['\b(monday|friday)\b']
	    resolve: title
*/
package grammar
