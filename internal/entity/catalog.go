// Package entity holds the curated entity catalog and the normalization
// logic that maps free-text mentions onto canonical entity names.
package entity

// Definition is one curated entity plus the known name variations used for
// normalization. The catalog is an ordered list on purpose: normalization
// resolves ties by table order, first match wins.
type Definition struct {
	Name       string
	Category   string
	Variations []string
}

const (
	CategoryModel = "model"
	CategoryTool  = "tool"
)

// Catalog is the fixed set of tracked entities. The list is curated to keep
// API costs bounded and tracking consistent; it is not runtime-configurable.
var Catalog = []Definition{
	{
		Name:     "GPT-4o",
		Category: CategoryModel,
		Variations: []string{
			"gpt-4o",
			"gpt 4o",
			"gpt4o",
			"gpt-4 omni",
			"openai gpt-4o",
			"chatgpt-4o",
			"openai's gpt-4o",
			"gpt-4 turbo",
		},
	},
	{
		Name:     "Claude",
		Category: CategoryModel,
		Variations: []string{
			"claude",
			"claude ai",
			"anthropic claude",
			"claude 3",
			"claude 3.5",
			"claude sonnet",
			"claude opus",
			"claude haiku",
			"anthropic's claude",
		},
	},
	{
		Name:     "Gemini",
		Category: CategoryModel,
		Variations: []string{
			"gemini",
			"google gemini",
			"gemini pro",
			"gemini ultra",
			"gemini advanced",
			"gemini ai",
			"google's gemini",
			"bard gemini",
		},
	},
	{
		Name:     "Llama",
		Category: CategoryModel,
		Variations: []string{
			"llama",
			"meta llama",
			"llama 2",
			"llama 3",
			"llama 3.1",
			"llama 3.2",
			"llama 3.3",
			"meta's llama",
			"meta ai llama",
		},
	},
	{
		Name:     "Mistral",
		Category: CategoryModel,
		Variations: []string{
			"mistral",
			"mistral ai",
			"mistral 7b",
			"mistral large",
			"mistral medium",
			"mistral small",
			"mixtral",
			"mistral's models",
		},
	},
	{
		Name:     "Cursor",
		Category: CategoryTool,
		Variations: []string{
			"cursor",
			"cursor ai",
			"cursor editor",
			"cursor ide",
			"cursor.sh",
			"cursor.so",
			"anysphere cursor",
		},
	},
	{
		Name:     "Lovable",
		Category: CategoryTool,
		Variations: []string{
			"lovable",
			"lovable.dev",
			"lovable ai",
			"gptengineer",
			"gpt engineer",
			"gpt-engineer",
		},
	},
	{
		Name:     "v0",
		Category: CategoryTool,
		Variations: []string{
			"v0",
			"v0.dev",
			"vercel v0",
			"v0 by vercel",
			"v zero",
			"vercel's v0",
		},
	},
	{
		Name:     "GitHub Copilot",
		Category: CategoryTool,
		Variations: []string{
			"github copilot",
			"copilot",
			"gh copilot",
			"github's copilot",
			"copilot x",
			"copilot chat",
			"microsoft copilot",
		},
	},
	{
		Name:     "Replit",
		Category: CategoryTool,
		Variations: []string{
			"replit",
			"repl.it",
			"replit ai",
			"replit ghostwriter",
			"ghostwriter",
			"replit agent",
		},
	},
}

// Names returns the canonical entity names in catalog order.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for _, def := range Catalog {
		names = append(names, def.Name)
	}
	return names
}
