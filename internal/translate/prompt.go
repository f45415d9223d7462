package translate

import (
	"strings"

	"github.com/hikari/ronbun/internal/models"
)

const systemBase = "你是一名技术型学术翻译助手。将输入的英文学术内容精准翻译为简体中文，" +
	"保持严谨、自然、通顺。注意：避免直译腔，术语统一，尽量使用通用中文表述。"

// Invariant rules applied to every segment regardless of section kind.
var generalRules = []string{
	"保留原有的 Markdown 结构（标题、列表、表格、引用等）。",
	"行内代码和代码块不要翻译，只保留原样；变量名、函数名、数据类型保持不变。",
	"数学公式、符号（如 $...$、$$...$$、\\(\\)）原样保留，不要改动其中的变量和符号。",
	"专有名词（如 Information Bottleneck、Mutual Information）首次出现可在括号内补充英文原文。",
	"保持段落分句与逻辑连贯，必要时适度调整语序以更符合中文表达。",
}

// Kind-specific additions layered on top of the general rules.
var kindRules = map[models.SectionKind][]string{
	models.SectionAbstract: {
		"语气精炼、客观，突出问题、方法、结论与贡献。",
		"不新增信息，不主观评价。",
	},
	models.SectionIntroduction: {
		"保持叙述清晰；适度润色以增强可读性。",
	},
	models.SectionMethods: {
		"术语严格、步骤清晰；被动转主动仅在不改变含义时进行。",
	},
	models.SectionResults: {
		"强调定量结果与对比；谨慎处理不确定性与假设。",
	},
	models.SectionDiscussion: {
		"忠实呈现作者观点；区分事实与推测。",
	},
	models.SectionConclusion: {
		"总结要点，避免引入新信息。",
	},
	models.SectionEquationHeavy: {
		"重点翻译文字说明；公式与符号一律保留原样。",
	},
	models.SectionTableHeavy: {
		"表头可翻译；表格内单位/符号保持原样。",
	},
	models.SectionCodeHeavy: {
		"代码与配置不翻译；仅翻译注释与围绕代码的说明文字。",
	},
	models.SectionReferences: {
		"参考文献条目通常不翻译期刊名/会议名；可将论文标题意译为中文并在括号保留英文原文。",
	},
	models.SectionShort: {
		"保持简练，避免过度扩写。",
	},
}

// Instructions composes the system prompt for a section kind: the invariant
// rules plus the kind-specific additions.
func Instructions(kind models.SectionKind) string {
	var b strings.Builder
	b.WriteString(systemBase)
	b.WriteString("\n翻译规则：")
	for _, r := range generalRules {
		b.WriteString("\n- ")
		b.WriteString(r)
	}
	if extras := kindRules[kind]; len(extras) > 0 {
		b.WriteString("\n针对本段内容的补充规则：")
		for _, r := range extras {
			b.WriteString("\n- ")
			b.WriteString(r)
		}
	}
	b.WriteString("\n输出仅给出中文译文，不要重复原文，不要额外解释。")
	return b.String()
}

// SegmentMessages builds the role-tagged message list for one segment: the
// kind-specific instruction message and a content message carrying the segment
// text plus its section title.
func SegmentMessages(title, segment string, kind models.SectionKind) []Message {
	return []Message{
		{Role: "system", Content: Instructions(kind)},
		{Role: "user", Content: "【段落标题】" + title + "\n【待翻译内容】\n" + segment + "\n"},
	}
}
