package ai

import (
	"strings"

	"github.com/hitoshi/careerflow/internal/model"
)

// systemInstruction はコーチのペルソナを定義するシステム指示。
const systemInstruction = `You are CareerFlow AI Coach - a world-class career counselor and HR expert.

Guidelines:
- Be encouraging but honest.
- Keep answers concise (max ~400 words) unless the user asks for detail.
- When you list items, use numbered or bulleted lists.
- When you recommend courses or resources, explain *why* in one sentence.
- Never make up statistics - say "estimated" when uncertain.
- If you don't have enough information to answer, ask a follow-up question.`

// BuildProfileContext はプロンプトに添えるプロフィールの要約を組み立てる。
// 空のフィールドは行ごと省く。
func BuildProfileContext(user *model.User) string {
	p := user.Profile

	var edu []string
	for _, e := range p.Education {
		parts := nonEmpty(e.Degree, e.FieldOfStudy, e.Institution)
		if len(parts) > 0 {
			edu = append(edu, strings.Join(parts, ", "))
		}
	}
	var exp []string
	for _, e := range p.Experience {
		parts := nonEmpty(e.Title, e.Company, e.Description)
		if len(parts) > 0 {
			exp = append(exp, strings.Join(parts, " / "))
		}
	}

	var lines []string
	lines = append(lines, "Name: "+user.FullName)
	if p.Bio != "" {
		lines = append(lines, "Bio: "+p.Bio)
	}
	if p.Location != "" {
		lines = append(lines, "Location: "+p.Location)
	}
	if len(p.Skills) > 0 {
		lines = append(lines, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if len(p.CareerInterests) > 0 {
		lines = append(lines, "Career Interests: "+strings.Join(p.CareerInterests, ", "))
	}
	if len(edu) > 0 {
		lines = append(lines, "Education: "+strings.Join(edu, "; "))
	}
	if len(exp) > 0 {
		lines = append(lines, "Experience: "+strings.Join(exp, "; "))
	}
	return strings.Join(lines, "\n")
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// stripCodeFences はモデルが付けがちなMarkdownのコードフェンスを取り除く。
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
