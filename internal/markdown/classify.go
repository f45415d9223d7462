package markdown

import (
	"regexp"
	"strings"

	"github.com/hikari/ronbun/internal/models"
)

// titlePattern matches a section title by its leading word. English
// alternatives end on \b; since Go's \b is ASCII-only, the CJK alternatives
// spell out the boundary (end of string or a non-word rune) so that e.g.
// "Abstraction" or "摘要与贡献" do not match.
func titlePattern(english, cjk string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)^(` + english + `)\b|^(` + cjk + `)([^\p{L}\p{N}_]|$)`)
}

// Title patterns are matched case-insensitively in English and Chinese.
var (
	referencesPat   = titlePattern(`references|bibliography`, `参考文献`)
	abstractPat     = titlePattern(`abstract`, `摘要`)
	introductionPat = titlePattern(`introduction`, `背景|引言`)
	methodsPat      = titlePattern(`methods?|methodology`, `方法`)
	resultsPat      = titlePattern(`results?`, `实验|结果`)
	discussionPat   = titlePattern(`discussion`, `讨论`)
	conclusionPat   = titlePattern(`conclusions?`, `结论`)

	fenceRE      = regexp.MustCompile("^```")
	inlineMathRE = regexp.MustCompile(`\$[^$\n]+\$`)
	blockMathRE  = regexp.MustCompile(`(?m)^\s*\$\$`)
)

// Classification thresholds over the content footprint.
const (
	codeFenceThreshold = 2
	mathTokenThreshold = 3
	tableLineThreshold = 3
	shortWordThreshold = 40
)

// Classify assigns a section kind from structural and lexical signals.
// Title patterns take priority; otherwise the content footprint decides.
// Deterministic: the same (title, content) always yields the same kind.
func Classify(title, content string) models.SectionKind {
	t := strings.ToLower(strings.TrimSpace(title))
	switch {
	case referencesPat.MatchString(t):
		return models.SectionReferences
	case abstractPat.MatchString(t):
		return models.SectionAbstract
	case introductionPat.MatchString(t):
		return models.SectionIntroduction
	case methodsPat.MatchString(t):
		return models.SectionMethods
	case resultsPat.MatchString(t):
		return models.SectionResults
	case discussionPat.MatchString(t):
		return models.SectionDiscussion
	case conclusionPat.MatchString(t):
		return models.SectionConclusion
	}

	var fences, tableLines int
	for _, line := range strings.Split(content, "\n") {
		if fenceRE.MatchString(line) {
			fences++
		}
		if strings.Contains(line, "|") && !strings.HasPrefix(strings.TrimSpace(line), "#") {
			tableLines++
		}
	}
	mathTokens := len(inlineMathRE.FindAllString(content, -1)) + len(blockMathRE.FindAllString(content, -1))

	switch {
	case fences >= codeFenceThreshold:
		return models.SectionCodeHeavy
	case mathTokens >= mathTokenThreshold:
		return models.SectionEquationHeavy
	case tableLines >= tableLineThreshold:
		return models.SectionTableHeavy
	case len(strings.Fields(content)) < shortWordThreshold:
		return models.SectionShort
	}
	return models.SectionGeneral
}
