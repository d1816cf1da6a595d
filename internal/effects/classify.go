package effects

import "strings"

type Category string

const CategoryAll Category = "all"

// Eye-candy categories.
const (
	Gold    Category = "gold"
	Metal   Category = "metal"
	Neon    Category = "neon"
	Crystal Category = "crystal"
	Fire    Category = "fire"
	Nature  Category = "nature"
	Fantasy Category = "fantasy"
	Retro   Category = "retro"
)

// Finishing categories.
const (
	Element    Category = "element"
	Glow       Category = "glow"
	Impact     Category = "impact"
	Atmosphere Category = "atmosphere"
	Frame      Category = "frame"
	Filter     Category = "filter"
)

type CategoryInfo struct {
	ID      Category `json:"id"`
	Label   string   `json:"label"`
	LabelJa string   `json:"labelJa"`
}

var eyeCandyCategories = []CategoryInfo{
	{CategoryAll, "All", "すべて"},
	{Gold, "Gold", "ゴールド系"},
	{Metal, "Metal", "メタル系"},
	{Crystal, "Crystal", "宝石・クリスタル系"},
	{Fire, "Fire", "炎・雷・エネルギー系"},
	{Neon, "Neon", "ネオン・サイバー系"},
	{Nature, "Nature", "自然・季節系"},
	{Fantasy, "Fantasy", "ファンタジー・和風系"},
	{Retro, "Retro", "レトロ・ヴィンテージ系"},
}

var finishingCategories = []CategoryInfo{
	{CategoryAll, "All", "すべて"},
	{Element, "Element", "エレメント系"},
	{Glow, "Glow", "光・発光系"},
	{Impact, "Impact", "爆発・インパクト系"},
	{Atmosphere, "Atmosphere", "雰囲気演出系"},
	{Frame, "Frame", "フレーム・装飾系"},
	{Filter, "Filter", "質感変更系"},
}

func Categories(kind Kind) []CategoryInfo {
	src := eyeCandyCategories
	if kind == Finishing {
		src = finishingCategories
	}
	out := make([]CategoryInfo, len(src))
	copy(out, src)
	return out
}

type rule struct {
	category Category
	match    func(s string) bool
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

// First match wins, so the order of the tables matters.
var eyeCandyRules = []rule{
	{Gold, containsAny("gold", "ゴールド", "黄金", "golden", "金箔")},
	{Metal, containsAny("chrome", "metal", "silver", "クロム", "platinum", "プラチナ", "bronze", "ブロンズ",
		"iron", "copper", "steel", "鉄", "銀", "pearl", "パール")},
	{Neon, func(s string) bool {
		return containsAny("neon", "ネオン", "cyber", "サイバー", "glitch", "グリッチ", "tokyo", "東京",
			"holographic", "ホログラフィック")(s) ||
			(strings.Contains(s, "electric") && strings.Contains(s, "blue"))
	}},
	{Crystal, containsAny("crystal", "クリスタル", "diamond", "ダイヤ", "jewel", "ice", "氷", "prism",
		"emerald", "エメラルド", "ruby", "ルビー", "sapphire", "サファイア", "amethyst", "アメジスト",
		"opal", "オパール", "quartz", "frost", "霜", "snow", "雪", "arctic")},
	{Fire, func(s string) bool {
		return containsAny("fire", "炎", "magma", "マグマ", "thunder", "雷", "lightning", "稲妻", "lava",
			"溶岩", "molten", "溶融", "inferno", "volcanic", "火山", "plasma")(s) ||
			(strings.Contains(s, "electric") && !strings.Contains(s, "blue"))
	}},
	{Nature, containsAny("ocean", "海", "wave", "波", "cherry", "桜", "forest", "森", "leaf", "紅葉",
		"bamboo", "竹", "coral", "珊瑚", "sunset", "夕焼", "meadow", "草原", "tropical", "jungle",
		"spring", "autumn", "moon", "月")},
	{Fantasy, containsAny("fantasy", "runic", "arcane", "steampunk", "スチームパンク", "gothic", "ゴシック",
		"漆", "urushi", "和", "japanese", "galaxy", "銀河", "nebula", "cosmic", "宇宙", "spirit", "精霊")},
	{Retro, containsAny("retro", "レトロ", "vintage", "ヴィンテージ", "80s", "80年代", "synthwave", "vaporwave",
		"ヴェイパー", "art deco", "アールデコ", "sepia", "セピア", "antique", "アンティーク", "marquee",
		"電飾", "gatsby", "candy", "キャンディ", "pop")},
}

var finishingRules = []rule{
	{Element, containsAny("fire", "lightning", "ice", "water", "wind", "light-holy", "light-pillar", "dark",
		"sakura", "snow", "star", "galaxy")},
	{Glow, containsAny("halo", "lens", "neon-leak", "god-rays", "glow", "bloom", "rim-light", "rainbow-glow",
		"pulse", "spotlight")},
	{Impact, containsAny("explosion", "shockwave", "speed", "radial", "lightning-bg", "ground", "power-up",
		"sonic", "impact")},
	{Atmosphere, containsAny("bokeh", "smoke", "dust", "confetti", "sparkle", "bubble", "rain", "mist", "firefly")},
	{Frame, containsAny("frame")},
	{Filter, containsAny("cinematic", "vintage", "contrast", "desaturated", "tone", "dramatic", "dreamy",
		"sharp", "grain", "vignette")},
}

// Classify derives the category of an effect. Eye-candy effects are matched
// on their lower-cased titles and default to Gold; finishing effects are
// matched on their id and default to Element.
func Classify(kind Kind, e Effect) Category {
	rules, subject, fallback := eyeCandyRules, strings.ToLower(e.TitleEn+" "+e.TitleJa), Gold
	if kind == Finishing {
		rules, subject, fallback = finishingRules, e.ID, Element
	}
	for _, r := range rules {
		if r.match(subject) {
			return r.category
		}
	}
	return fallback
}
