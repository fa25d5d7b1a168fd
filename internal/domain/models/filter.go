package models

import "strconv"

// Request parameter names accepted by the listing layer. Anything else on the
// request is dropped before queries are built.
const (
	ParamCategory = "category"
	ParamTag      = "tag"
	ParamAuthor   = "author"
	ParamPage     = "page"
	ParamYear     = "year"
	ParamMonth    = "month"
)

// WhitelistedParameters is the full allowed set, in documentation order.
var WhitelistedParameters = []string{
	ParamCategory, ParamTag, ParamAuthor, ParamPage, ParamYear, ParamMonth,
}

// QueryFilter is the request-scoped listing filter: a mapping from
// whitelisted parameter names to raw string values.
type QueryFilter map[string]string

func (f QueryFilter) Category() (string, bool) { return f.value(ParamCategory) }
func (f QueryFilter) Tag() (string, bool)      { return f.value(ParamTag) }
func (f QueryFilter) Author() (string, bool)   { return f.value(ParamAuthor) }

// Page returns the 1-based page number, defaulting to 1 when the parameter is
// absent or not numeric.
func (f QueryFilter) Page() int {
	raw, ok := f.value(ParamPage)
	if !ok {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Year returns the year filter when present and numeric.
func (f QueryFilter) Year() (int, bool) {
	return f.intValue(ParamYear)
}

// Month returns the month filter when present and numeric. Values outside
// 1-12 are returned as-is; the date predicate lets them roll into adjacent
// years.
func (f QueryFilter) Month() (int, bool) {
	return f.intValue(ParamMonth)
}

func (f QueryFilter) value(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (f QueryFilter) intValue(key string) (int, bool) {
	raw, ok := f.value(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
