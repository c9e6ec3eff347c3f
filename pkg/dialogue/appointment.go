package dialogue

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/chart"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsl"
)

// Slots filled by the appointment conversation.
const (
	SlotUsername = "username"
	SlotPerson   = "person"
	SlotInfo     = "info"
	SlotTitle    = "title"
	SlotDay      = "day"
	SlotTime     = "time"
)

// Intents and entity categories the appointment chart reacts to.
const (
	IntentFamousPerson = "famousPerson"
	IntentMeeting      = "meeting"

	EntityUsername = "username"
	EntityPerson   = "person"
	EntityDateTime = "dateTime"
)

// KnowledgeSrc is the invocation source served by the knowledge collaborator.
const KnowledgeSrc = "knowledge"

// AllDay is the time slot value of a meeting lasting the whole day.
const AllDay = "all day"

// Appointment builds the meeting-booking conversation.
//
// idle -(CLICK)-> init -(CLICK|TTS_READY)-> main. Inside main the user is
// greeted, may ask about a famous person (knowledge lookup) or book a
// meeting slot by slot. Saying "help" in any slot plays a help message and
// resumes exactly where the user was.
func Appointment() (*chart.Chart, error) {
	return AppointmentBuilder().Build()
}

// MustAppointment is like Appointment but panics on error.
func MustAppointment() *chart.Chart {
	return AppointmentBuilder().MustBuild()
}

// AppointmentBuilder returns the unbuilt appointment chart so callers can extend it.
func AppointmentBuilder() *dsl.Builder {
	const restart = "#appointment.idle"

	b := dsl.New("appointment").Initial("idle")

	b.State("idle").On(domain.EventClick, "init")
	b.State("init").
		On(domain.EventTTSReady, "main").
		On(domain.EventClick, "main")
	b.State("help").Alias("help").
		Entry(dsl.Speak("This is a help message! Answer the question, or say goodbye by answering no.")).
		On(domain.EventEndSpeech, "main.history")

	main := b.State("main").Alias("main").Initial("user")
	main.History("history", domain.HistoryDeep)

	Slot{
		Key:     "user",
		Help:    "#help",
		Restart: restart,
		Prompts: SayTiers(
			"Hi! What's your name?",
			"What is your name?",
			"Please, tell me your name.",
		),
		Rules: []Rule{
			{Guard: HasEntity(EntityUsername), Target: "#welcome", Actions: []domain.Action{
				dsl.Assign("username", func(ctx domain.Context, _ domain.Event) domain.Patch {
					return domain.Patch{SlotUsername: EntityValue(ctx, EntityUsername)}
				}),
			}},
		},
	}.Build(main)

	Slot{
		Key:     "welcome",
		Help:    "#help",
		Restart: restart,
		Prompts: Tiers{
			dsl.SpeakSlots("Hi, %s! Would you like to create a meeting or hear about someone famous?", SlotUsername),
			dsl.Speak("You can create a meeting, or ask me who someone is."),
			dsl.Speak("Say create a meeting, or who is, followed by a name."),
		},
		Rules: []Rule{
			{Guard: IntentIs(IntentFamousPerson), Target: "#famousPerson", Actions: []domain.Action{
				dsl.Assign("person", func(ctx domain.Context, _ domain.Event) domain.Patch {
					if v := EntityValue(ctx, EntityPerson); v != "" {
						return domain.Patch{SlotPerson: v}
					}
					p, _ := ctx.Prediction(SlotNLU)
					if len(p.Entities) > 0 {
						return domain.Patch{SlotPerson: p.Entities[0].Text}
					}
					return domain.Patch{SlotPerson: Utterance(ctx)}
				}),
			}},
			{Guard: IntentIs(IntentMeeting), Target: "#meeting"},
			{Guard: Rejected, Target: "#goodbye"},
		},
	}.Build(main)

	famous := main.State("famousPerson").Alias("famousPerson").Initial("info")
	famous.State("info").
		Invoke(KnowledgeSrc, func(ctx domain.Context) any { return ctx.String(SlotPerson) }).
		OnDone(hasAbstract, "success", dsl.Assign("info", func(_ domain.Context, ev domain.Event) domain.Patch {
			return domain.Patch{SlotInfo: abstractOf(ev)}
		})).
		OnDone(nil, "noinfo").
		OnError("failure")
	famous.State("success").
		Entry(dsl.Speakf("sayInfo", func(ctx domain.Context, _ domain.Event) string {
			return ctx.String(SlotInfo)
		})).
		On(domain.EventEndSpeech, "#meetThem")
	famous.State("noinfo").
		Entry(dsl.Speak("I don't know anything about them. What else can I do for you?")).
		On(domain.EventEndSpeech, "#welcome.ask")
	famous.State("failure").
		Entry(dsl.Speak("An error seems to have occurred. Let's try again.")).
		On(domain.EventEndSpeech, "#welcome")

	Slot{
		Key:     "meetThem",
		Help:    "#help",
		Restart: restart,
		Prompts: Tiers{
			dsl.SpeakSlots("Do you want to meet %s?", SlotPerson),
			dsl.Speak("Would you like to set up a meeting with them?"),
			dsl.Speak("Please answer yes or no. Do you want to meet them?"),
		},
		Rules: []Rule{
			{Guard: Affirmed, Target: "#meeting.day", Actions: []domain.Action{
				dsl.Assign("meetingTitle", func(ctx domain.Context, _ domain.Event) domain.Patch {
					return domain.Patch{SlotTitle: "Meeting with " + ctx.String(SlotPerson)}
				}),
			}},
			{Guard: Rejected, Target: "#goodbye"},
		},
	}.Build(main)

	main.State("goodbye").Alias("goodbye").
		Entry(dsl.Speak("Okay. Goodbye!")).
		On(domain.EventEndSpeech, restart, dsl.Reset())

	meeting := main.State("meeting").Alias("meeting").Initial("title")

	Slot{
		Key:     "title",
		Help:    "#help",
		Restart: restart,
		Prompts: SayTiers(
			"Let's create a meeting. What is it about?",
			"What is the meeting about?",
			"Please give the meeting a title.",
		),
		Rules: []Rule{
			{Guard: HasUtterance, Target: "#meeting.day", Actions: []domain.Action{
				dsl.Assign("title", func(ctx domain.Context, _ domain.Event) domain.Patch {
					return domain.Patch{SlotTitle: strings.TrimSuffix(strings.TrimSpace(Utterance(ctx)), ".")}
				}),
			}},
		},
	}.Build(meeting)

	Slot{
		Key:     "day",
		Help:    "#help",
		Restart: restart,
		Prompts: SayTiers(
			"On which day is it?",
			"Which day should I book?",
			"Please tell me the day of the meeting, for example Friday.",
		),
		Rules: []Rule{
			{Guard: HasEntity(EntityDateTime), Target: "#meeting.allday", Actions: []domain.Action{
				dsl.Assign("day", func(ctx domain.Context, _ domain.Event) domain.Patch {
					return domain.Patch{SlotDay: EntityValue(ctx, EntityDateTime)}
				}),
			}},
		},
	}.Build(meeting)

	Slot{
		Key:     "allday",
		Help:    "#help",
		Restart: restart,
		Prompts: SayTiers(
			"Will it take the whole day?",
			"Is it an all-day meeting?",
			"Please answer yes or no. Will it last all day?",
		),
		Rules: []Rule{
			{Guard: Affirmed, Target: "#meeting.doublecheck", Actions: []domain.Action{dsl.Set(SlotTime, AllDay)}},
			{Guard: Rejected, Target: "#meeting.time"},
		},
	}.Build(meeting)

	Slot{
		Key:     "time",
		Help:    "#help",
		Restart: restart,
		Prompts: SayTiers(
			"What time is your meeting?",
			"At what time does it start?",
			"Please tell me the time, for example ten o'clock.",
		),
		Rules: []Rule{
			{Guard: HasEntity(EntityDateTime), Target: "#meeting.doublecheck", Actions: []domain.Action{
				dsl.Assign("time", func(ctx domain.Context, _ domain.Event) domain.Patch {
					return domain.Patch{SlotTime: EntityValue(ctx, EntityDateTime)}
				}),
			}},
		},
	}.Build(meeting)

	Slot{
		Key:     "doublecheck",
		Help:    "#help",
		Restart: restart,
		Prompts: Tiers{summary, summary, summary},
		Rules: []Rule{
			{Guard: Affirmed, Target: "#meeting.confirm"},
			{Guard: Rejected, Target: "#meeting.incorrect"},
		},
	}.Build(meeting)

	meeting.State("confirm").
		Entry(dsl.Speak("Ok, your meeting has been created.")).
		On(domain.EventEndSpeech, "#appointment.init")
	meeting.State("incorrect").
		Entry(dsl.Speak("I'm sorry, I misunderstood. We'll try again.")).
		On(domain.EventEndSpeech, "#welcome.prompt.p2")

	return b
}

var hasAbstract = dsl.Guard("hasAbstract", func(_ domain.Context, ev domain.Event) bool {
	return abstractOf(ev) != ""
})

func abstractOf(ev domain.Event) string {
	res, ok := ev.InvocationResult()
	if !ok {
		return ""
	}
	switch v := res.Data.(type) {
	case domain.LookupResult:
		return v.Abstract
	case *domain.LookupResult:
		if v != nil {
			return v.Abstract
		}
	case map[string]any:
		// Decoded JSON from HTTP clients and external processes.
		s, _ := v["abstract"].(string)
		return s
	}
	return ""
}

var summary = dsl.Speakf("summary", func(ctx domain.Context, _ domain.Event) string {
	return fmt.Sprintf("Do you want me to create a meeting titled %s on %s %s?",
		ctx.String(SlotTitle), ctx.String(SlotDay), SpeakTime(ctx.String(SlotTime)))
})

// SpeakTime renders the time slot for a confirmation question.
func SpeakTime(t string) string {
	if t == AllDay || t == "" {
		return "that lasts all day"
	}
	return "at " + t
}
