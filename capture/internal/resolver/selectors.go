package resolver

// Selectors lists every locator the resolver uses, in priority order. The
// judge site rewrites its markup often, so all of them are configurable.
type Selectors struct {
	ErrorPanel      []string `yaml:"error_panel"`
	EditorContainer string   `yaml:"editor_container"`
	EditorLine      string   `yaml:"editor_line"`
	CodeBlocks      []string `yaml:"code_blocks"`
	CodeXPath       []string `yaml:"code_xpath"`
	Banners         []string `yaml:"banners"`
	FailureFallback []string `yaml:"failure_fallback"`
	Title           []string `yaml:"title"`
	Description     []string `yaml:"description"`
	SubmitControl   string   `yaml:"submit_control"`
}

// errorPanelCode is the code block shown next to a compile or runtime error.
const errorPanelCode = `#\36 d67eff6-a6e0-9fa1-ee77-9c34d81c9e9f > div > div > div > div.w-full.flex-1.overflow-y-auto > div > div:nth-child(2) > div.relative.w-full.overflow-hidden.rounded-lg.bg-fill-quaternary.dark\:bg-fill-quaternary.pb-7 > div.px-4.py-3 > div > pre > code`

const submitControl = `#editor > div.flex.items-center.justify-between.px-3.h-auto.py-1.pl-3.pr-1 > div.relative.flex.overflow-hidden.rounded.bg-fill-tertiary.dark\:bg-fill-tertiary.\!bg-transparent > div.flex-none.flex > div:nth-child(2) > div:nth-child(2) > div > button`

// DefaultSelectors returns the locators known to work on the judge site.
func DefaultSelectors() Selectors {
	return Selectors{
		ErrorPanel:      []string{errorPanelCode},
		EditorContainer: ".monaco-editor .view-lines",
		EditorLine:      ".view-line",
		CodeBlocks: []string{
			"div.overflow-hidden pre > code",
			"div.relative.w-full.overflow-hidden pre > code",
			"pre > code",
			`[class*="code-container"] code`,
			`[class*="editor"] code`,
		},
		CodeXPath: []string{
			"//pre/code[contains(text(), 'class') or contains(text(), 'def')]",
		},
		Banners: []string{
			".text-green-s span",
			`[class*="success"]`,
			".space-y-4.m-0 .flex.items-center span",
			`[class*="error"]`,
			`[class*="wrong"]`,
			`[data-e2e-locator="submission-result"] span`,
		},
		FailureFallback: []string{
			`[class*="error"], [class*="wrong"], [class*="fail"]`,
		},
		Title: []string{
			`[data-cy="question-title"]`,
			".css-v3d350",
		},
		Description: []string{
			`[data-track-load="description_content"]`,
			`[data-cy="question-content"]`,
			".content__u3I1.question-content__JfgR",
		},
		SubmitControl: submitControl,
	}
}

// WithDefaults fills every empty field from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	if len(s.ErrorPanel) == 0 {
		s.ErrorPanel = d.ErrorPanel
	}
	if s.EditorContainer == "" {
		s.EditorContainer = d.EditorContainer
	}
	if s.EditorLine == "" {
		s.EditorLine = d.EditorLine
	}
	if len(s.CodeBlocks) == 0 {
		s.CodeBlocks = d.CodeBlocks
	}
	if len(s.CodeXPath) == 0 {
		s.CodeXPath = d.CodeXPath
	}
	if len(s.Banners) == 0 {
		s.Banners = d.Banners
	}
	if len(s.FailureFallback) == 0 {
		s.FailureFallback = d.FailureFallback
	}
	if len(s.Title) == 0 {
		s.Title = d.Title
	}
	if len(s.Description) == 0 {
		s.Description = d.Description
	}
	if s.SubmitControl == "" {
		s.SubmitControl = d.SubmitControl
	}
	return s
}
