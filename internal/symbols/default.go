package symbols

// defaultEntries is the built-in substitution table. Sequences come first
// for readability; New reorders by length regardless.
var defaultEntries = []Entry{
	// Temperature units.
	{Symbol: "°C", Replacement: `^\circ\mathrm{C}`},
	{Symbol: "°F", Replacement: `^\circ\mathrm{F}`},

	// Units and degrees.
	{Symbol: "\u03a9", Replacement: `\Omega`}, // U+03A9 GREEK CAPITAL LETTER OMEGA
	{Symbol: "\u2126", Replacement: `\Omega`}, // U+2126 OHM SIGN
	{Symbol: "°", Replacement: `^\circ`},      // U+00B0
	{Symbol: "\u00b5", Replacement: `\mu`},    // U+00B5 MICRO SIGN
	{Symbol: "∠", Replacement: `\angle`},      // U+2220
	{Symbol: "′", Replacement: `^\prime`},     // U+2032

	// Superscripts.
	{Symbol: "¹", Replacement: `^1`},
	{Symbol: "²", Replacement: `^2`},
	{Symbol: "³", Replacement: `^3`},
	{Symbol: "⁴", Replacement: `^4`},
	{Symbol: "⁻¹", Replacement: `^{-1}`},

	// Vulgar fractions.
	{Symbol: "½", Replacement: `\frac{1}{2}`},
	{Symbol: "⅓", Replacement: `\frac{1}{3}`},
	{Symbol: "¼", Replacement: `\frac{1}{4}`},
	{Symbol: "¾", Replacement: `\frac{3}{4}`},

	// Greek.
	{Symbol: "α", Replacement: `\alpha`},
	{Symbol: "β", Replacement: `\beta`},
	{Symbol: "γ", Replacement: `\gamma`},
	{Symbol: "δ", Replacement: `\delta`},
	{Symbol: "\u0394", Replacement: `\Delta`}, // U+0394
	{Symbol: "\u2206", Replacement: `\Delta`}, // U+2206 INCREMENT
	{Symbol: "ε", Replacement: `\varepsilon`},
	{Symbol: "θ", Replacement: `\theta`},
	{Symbol: "λ", Replacement: `\lambda`},
	{Symbol: "\u03bc", Replacement: `\mu`},    // U+03BC
	{Symbol: "π", Replacement: `\pi`},
	{Symbol: "ρ", Replacement: `\rho`},
	{Symbol: "σ", Replacement: `\sigma`},
	{Symbol: "Σ", Replacement: `\Sigma`},
	{Symbol: "τ", Replacement: `\tau`},
	{Symbol: "φ", Replacement: `\phi`},
	{Symbol: "Φ", Replacement: `\Phi`},
	{Symbol: "ω", Replacement: `\omega`},

	// Operators and relations.
	{Symbol: "±", Replacement: `\pm`},
	{Symbol: "∓", Replacement: `\mp`},
	{Symbol: "×", Replacement: `\times`},
	{Symbol: "÷", Replacement: `\div`},
	{Symbol: "\u00b7", Replacement: `\cdot`}, // U+00B7
	{Symbol: "\u22c5", Replacement: `\cdot`}, // U+22C5
	{Symbol: "≤", Replacement: `\leq`},
	{Symbol: "≥", Replacement: `\geq`},
	{Symbol: "≠", Replacement: `\neq`},
	{Symbol: "≈", Replacement: `\approx`},
	{Symbol: "≡", Replacement: `\equiv`},
	{Symbol: "∝", Replacement: `\propto`},
	{Symbol: "∞", Replacement: `\infty`},
	{Symbol: "√", Replacement: `\surd`},
	{Symbol: "∑", Replacement: `\sum`},
	{Symbol: "∫", Replacement: `\int`},
	{Symbol: "∂", Replacement: `\partial`},
	{Symbol: "∇", Replacement: `\nabla`},
	{Symbol: "∥", Replacement: `\parallel`},
	{Symbol: "⊥", Replacement: `\perp`},

	// Arrows.
	{Symbol: "→", Replacement: `\rightarrow`},
	{Symbol: "←", Replacement: `\leftarrow`},
	{Symbol: "↔", Replacement: `\leftrightarrow`},
	{Symbol: "⇒", Replacement: `\Rightarrow`},
	{Symbol: "⇔", Replacement: `\Leftrightarrow`},
}

var defaultMap = mustNew(defaultEntries)

// Default returns the built-in symbol map. The returned value is shared
// and must not be modified; use With to derive an extended map.
func Default() *Map {
	return defaultMap
}

func mustNew(entries []Entry) *Map {
	m, err := New(entries)
	if err != nil {
		panic("symbols: invalid built-in table: " + err.Error())
	}
	return m
}
