package analyzer

import "strings"

// TagKey is a stable, locale-independent tag identifier.
type TagKey string

const (
	TagHighSharpness        TagKey = "high_sharpness"
	TagMediumSharpness      TagKey = "medium_sharpness"
	TagBlurry               TagKey = "blurry"
	TagRichColor            TagKey = "rich_color"
	TagModerateColor        TagKey = "moderate_color"
	TagMonotoneColor        TagKey = "monotone_color"
	TagExcellentComposition TagKey = "excellent_composition"
	TagGoodComposition      TagKey = "good_composition"
	TagAverageComposition   TagKey = "average_composition"
	TagGoodLighting         TagKey = "good_lighting"
	TagModerateLighting     TagKey = "moderate_lighting"
	TagPoorLighting         TagKey = "poor_lighting"
	TagOrdinaryPhoto        TagKey = "ordinary_photo"
	TagUnreadable           TagKey = "unreadable"
	TagAnalysisFailed       TagKey = "analysis_failed"
)

// Locale selects the language of tag texts.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleChinese Locale = "zh"
)

var catalog = map[Locale]map[TagKey]string{
	LocaleEnglish: {
		TagHighSharpness:        "high sharpness",
		TagMediumSharpness:      "medium sharpness",
		TagBlurry:               "blurry",
		TagRichColor:            "rich color",
		TagModerateColor:        "moderate color",
		TagMonotoneColor:        "monotone color",
		TagExcellentComposition: "excellent composition",
		TagGoodComposition:      "good composition",
		TagAverageComposition:   "average composition",
		TagGoodLighting:         "good lighting",
		TagModerateLighting:     "moderate lighting",
		TagPoorLighting:         "poor lighting",
		TagOrdinaryPhoto:        "ordinary photo",
		TagUnreadable:           "unreadable",
		TagAnalysisFailed:       "analysis failed",
	},
	LocaleChinese: {
		TagHighSharpness:        "清晰度高",
		TagMediumSharpness:      "清晰度中等",
		TagBlurry:               "模糊",
		TagRichColor:            "色彩丰富",
		TagModerateColor:        "色彩适中",
		TagMonotoneColor:        "色彩单调",
		TagExcellentComposition: "构图优秀",
		TagGoodComposition:      "构图良好",
		TagAverageComposition:   "构图一般",
		TagGoodLighting:         "光线良好",
		TagModerateLighting:     "光线适中",
		TagPoorLighting:         "光线不佳",
		TagOrdinaryPhoto:        "普通照片",
		TagUnreadable:           "无法读取",
		TagAnalysisFailed:       "分析失败",
	},
}

// ParseLocale maps a language code to a supported locale. Region suffixes are
// ignored ("zh-CN" is Chinese); anything unknown falls back to English.
func ParseLocale(raw string) Locale {
	lang := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	if _, ok := catalog[Locale(lang)]; ok {
		return Locale(lang)
	}
	return LocaleEnglish
}

// Text returns the localized text for key.
func (l Locale) Text(key TagKey) string {
	texts, ok := catalog[l]
	if !ok {
		texts = catalog[LocaleEnglish]
	}
	if text, ok := texts[key]; ok {
		return text
	}
	return string(key)
}

// Texts localizes keys preserving order.
func (l Locale) Texts(keys []TagKey) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = l.Text(key)
	}
	return out
}
