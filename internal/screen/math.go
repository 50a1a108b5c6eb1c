package screen

import (
	"regexp"
	"strings"
)

// mathSpan matches $$...$$, $...$, \(...\) and \[...\].
var mathSpan = regexp.MustCompile(`\$\$([^$]+)\$\$|\$([^$\n]+)\$|\\\((.+?)\\\)|\\\[(.+?)\\\]`)

var texSymbols = map[string]string{
	`\alpha`: "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ", `\epsilon`: "ε",
	`\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η", `\theta`: "θ", `\lambda`: "λ",
	`\mu`: "μ", `\nu`: "ν", `\xi`: "ξ", `\pi`: "π", `\rho`: "ρ", `\sigma`: "σ",
	`\tau`: "τ", `\phi`: "φ", `\varphi`: "φ", `\chi`: "χ", `\psi`: "ψ", `\omega`: "ω",
	`\Gamma`: "Γ", `\Delta`: "Δ", `\Theta`: "Θ", `\Lambda`: "Λ", `\Pi`: "Π",
	`\Sigma`: "Σ", `\Phi`: "Φ", `\Psi`: "Ψ", `\Omega`: "Ω",
	`\sum`: "∑", `\prod`: "∏", `\int`: "∫", `\partial`: "∂", `\nabla`: "∇",
	`\infty`: "∞", `\cdot`: "·", `\times`: "×", `\div`: "÷", `\pm`: "±",
	`\leq`: "≤", `\le`: "≤", `\geq`: "≥", `\ge`: "≥", `\neq`: "≠", `\ne`: "≠",
	`\approx`: "≈", `\sim`: "∼", `\propto`: "∝", `\equiv`: "≡",
	`\in`: "∈", `\notin`: "∉", `\subset`: "⊂", `\subseteq`: "⊆", `\cup`: "∪", `\cap`: "∩",
	`\forall`: "∀", `\exists`: "∃", `\to`: "→", `\rightarrow`: "→", `\leftarrow`: "←",
	`\Rightarrow`: "⇒", `\mapsto`: "↦", `\ldots`: "…", `\dots`: "…", `\cdots`: "⋯",
	`\log`: "log", `\exp`: "exp", `\max`: "max", `\min`: "min", `\arg`: "arg",
	`\quad`: " ", `\qquad`: "  ", `\,`: " ", `\;`: " ", `\!`: "",
	`\left`: "", `\right`: "",
}

var blackboard = map[byte]string{'R': "ℝ", 'N': "ℕ", 'Z': "ℤ", 'Q': "ℚ", 'C': "ℂ", 'E': "𝔼", 'P': "ℙ"}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ', 'T': 'ᵀ', 'k': 'ᵏ', 't': 'ᵗ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
	'+': '₊', '-': '₋', '=': '₌', '(': '₍', ')': '₎', 'i': 'ᵢ', 'j': 'ⱼ', 'k': 'ₖ', 'n': 'ₙ', 't': 'ₜ',
	'a': 'ₐ', 'e': 'ₑ', 'o': 'ₒ', 'x': 'ₓ', 'm': 'ₘ', 'p': 'ₚ', 's': 'ₛ', 'l': 'ₗ',
}

var (
	texCommand = regexp.MustCompile(`\\[A-Za-z]+|\\[,;!]`)
	texFrac    = regexp.MustCompile(`\\frac\{([^{}]*)\}\{([^{}]*)\}`)
	texSqrt    = regexp.MustCompile(`\\sqrt\{([^{}]*)\}`)
	texBB      = regexp.MustCompile(`\\mathbb\{([A-Z])\}`)
	texStyle   = regexp.MustCompile(`\\(?:mathbf|mathrm|mathit|mathcal|text|textbf|operatorname)\{([^{}]*)\}`)
	texScript  = regexp.MustCompile(`([\^_])(\{[^{}]*\}|.)`)
)

// RenderMath replaces every TeX span in s with a Unicode approximation.
// Text outside math delimiters is left alone.
func RenderMath(s string) string {
	return mathSpan.ReplaceAllStringFunc(s, func(span string) string {
		m := mathSpan.FindStringSubmatch(span)
		for _, inner := range m[1:] {
			if inner != "" {
				return texToUnicode(inner)
			}
		}
		return span
	})
}

func texToUnicode(tex string) string {
	out := strings.TrimSpace(tex)
	out = texFrac.ReplaceAllString(out, "($1)/($2)")
	out = texSqrt.ReplaceAllString(out, "√($1)")
	out = texBB.ReplaceAllStringFunc(out, func(m string) string {
		if r, ok := blackboard[m[len(m)-2]]; ok {
			return r
		}
		return m
	})
	out = texStyle.ReplaceAllString(out, "$1")
	out = texCommand.ReplaceAllStringFunc(out, func(cmd string) string {
		if r, ok := texSymbols[cmd]; ok {
			return r
		}
		return strings.TrimPrefix(cmd, `\`)
	})
	out = texScript.ReplaceAllStringFunc(out, func(m string) string {
		table := superscripts
		if m[0] == '_' {
			table = subscripts
		}
		body := strings.TrimSuffix(strings.TrimPrefix(m[1:], "{"), "}")
		var b strings.Builder
		for _, r := range body {
			mapped, ok := table[r]
			if !ok {
				// No Unicode form for this script; keep the TeX marker.
				return m[:1] + body
			}
			b.WriteRune(mapped)
		}
		return b.String()
	})
	out = strings.NewReplacer("{", "", "}", "").Replace(out)
	return out
}
