package intent

import "github.com/wekai-labs/ragqa/internal/types"

// exemplarBank holds, per non-question intent, a small set of short
// phrases a user might plausibly type. Layer 1 embeds these once at
// startup and compares an incoming query against all of them.
var exemplarBank = map[types.Intent][]string{
	types.IntentGreeting: {
		"hi", "hello", "hey there", "good morning", "good afternoon",
		"good evening", "hiya", "yo", "greetings", "hey, how are you",
		"hello there", "hi, is anyone there",
	},
	types.IntentGratitude: {
		"thanks", "thank you", "thanks a lot", "much appreciated",
		"thank you so much", "that helps, thanks", "appreciate it",
		"great, thanks", "perfect, thank you", "cheers",
	},
	types.IntentFollowup: {
		"what about the second one", "tell me more about that",
		"can you go deeper on the previous point", "and then what happened",
		"what's the next step", "can you continue from there",
		"what else should I know about that", "follow up on the last answer",
		"what about the other option you mentioned", "continue please",
	},
	types.IntentSimplify: {
		"can you explain that more simply", "simplify that for me",
		"that was too technical, can you dumb it down",
		"explain like I'm five", "put that in plain terms",
		"can you make that easier to understand",
		"shorter version please", "tl;dr", "give me the short version",
		"break that down simply",
	},
	types.IntentDeepen: {
		"can you go into more detail", "explain that in more depth",
		"give me a more thorough explanation", "expand on that",
		"what are the technical details behind that",
		"can you elaborate further", "I want a deeper explanation",
		"give me more detail on that point", "dig deeper into that",
		"what's the underlying mechanism",
	},
	types.IntentClarifyNeeded: {
		"what do you mean", "I don't understand the question",
		"can you clarify", "huh?", "not sure what you're asking",
		"what", "clarify please", "I'm confused by that",
	},
	types.IntentCommand: {
		"summarize this document", "list all the sources",
		"export this conversation", "delete this collection",
		"start a new session", "show me the sources",
		"reset the conversation", "clear the history",
	},
	types.IntentOffTopic: {
		"what's the weather today", "tell me a joke",
		"who won the game last night", "what's your favorite movie",
		"can you write me a poem", "what time is it",
		"sing me a song", "what's 2 plus 2",
	},
}
