package chat

// Kind selects the seed prompt for a conversation.
type Kind int

const (
	// KindCode is the default conversational kind for code questions.
	KindCode Kind = iota
	// KindCommit asks for a commit message from a staged diff.
	KindCommit
	// KindGit asks for git commands or configuration.
	KindGit
)

// generalPrompt frames every new conversation.
const generalPrompt = `You are an expert software engineer. Suggest the minimal, most effective solution.
Focus on core logic, avoid boilerplate, and prefer idiomatic, low-level implementations.
Work under the hood - no fluff, just clean and purposeful code.`

const codePrompt = `You are an expert systems developer. Given a function, struct, or snippet, complete or improve it
with minimal, efficient, and idiomatic code. Avoid abstraction unless necessary.
No comments unless the logic is complex. Focus on what's actually running.`

const commitPrompt = `Write a commit message using the Commitizen convention. Use the correct type
(feat, fix, chore, refactor, docs, test, etc.) and provide a concise description of the main change.
If relevant, include a scope and a short body explaining why the change was made.`

const gitPrompt = `You are a Git power user. Given a Git task, provide the most efficient and correct
command(s) or configuration. Prefer short, safe, and reproducible commands.
Explain only if the operation is not self-explanatory.`

// GeneralPrompt returns the conversation-framing prompt sent on the first turn.
func GeneralPrompt() string {
	return generalPrompt
}

// Prompt returns the seed prompt for the kind.
func (k Kind) Prompt() string {
	switch k {
	case KindCommit:
		return commitPrompt
	case KindGit:
		return gitPrompt
	default:
		return codePrompt
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindGit:
		return "git"
	default:
		return "code"
	}
}
