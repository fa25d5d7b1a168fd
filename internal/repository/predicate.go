package repository

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Relative importance of the fields a related-item search matches against.
const (
	searchBoostVeryImportant = 10
	searchBoostMedium        = 5
	searchBoostLess          = 2
)

// DescendantPredicate scopes a query to nodes under the given path. A blank
// scope defaults to the store root.
func DescendantPredicate(scope string) sq.Sqlizer {
	if scope == "" {
		scope = "/"
	}
	scope = strings.TrimSuffix(scope, "/")
	return sq.Like{"path": escapeLike(scope) + "/%"}
}

// AuthorPredicate matches blog items referencing the given contact. Callers
// resolve the filter's author path to an id first; an unresolved path means no
// predicate at all.
func AuthorPredicate(authorID uuid.UUID) sq.Sqlizer {
	return sq.Eq{"author": authorID}
}

// EmailPredicate matches contacts by email regardless of the casing either
// side was stored or typed with. Pairs with the LOWER(email) index.
func EmailPredicate(email string) sq.Sqlizer {
	return sq.Expr("LOWER(email) = LOWER(?)", email)
}

// CategoryPredicate matches blog items whose delimited categories property
// contains the given reference id.
func CategoryPredicate(categoryID uuid.UUID) sq.Sqlizer {
	return sq.Like{"categories": containsPattern(categoryID.String())}
}

// TagPredicate matches blog items whose delimited tags property contains the
// given reference id.
func TagPredicate(tagID uuid.UUID) sq.Sqlizer {
	return sq.Like{"tags": containsPattern(tagID.String())}
}

// AnyCategoryPredicate matches blog items referencing any of the given
// category ids. Used after descendant-category expansion.
func AnyCategoryPredicate(ids []uuid.UUID) sq.Sqlizer {
	or := make(sq.Or, 0, len(ids))
	for _, id := range ids {
		or = append(or, CategoryPredicate(id))
	}
	return or
}

// DateRangePredicate bounds the creation timestamp to a closed interval.
// Year only: [Jan 1 00:00:00.000, Dec 31 23:59:59.999]. With a month the
// bounds narrow to that month, the end bound landing on its last calendar
// day. Months outside 1-12 roll into the adjacent year; time.Date normalizes
// them exactly the way the filter has always behaved, so 0 means the previous
// December and 13 the next January.
func DateRangePredicate(year, month int, hasMonth bool) sq.Sqlizer {
	startMonth := time.January
	endMonth := time.December
	if hasMonth {
		startMonth = time.Month(month)
		endMonth = time.Month(month)
	}

	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, endMonth+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Millisecond)

	return sq.And{
		sq.GtOrEq{"created_at": start},
		sq.LtOrEq{"created_at": end},
	}
}

// PublishedPredicate keeps items with no publish date or one that has passed.
func PublishedPredicate(now time.Time) sq.Sqlizer {
	return sq.Or{
		sq.Eq{"publish_date": nil},
		sq.LtOrEq{"publish_date": now},
	}
}

// RelatedMatch is the fuzzy predicate for related-item search: a weighted
// disjunction of term matches with the source item excluded by name.
type RelatedMatch struct {
	// Score is a select expression summing the per-field weights of every
	// matched term; listings order by it descending.
	Score sq.Sqlizer
	Where sq.Sqlizer
}

// RelatedPredicate builds the match for the given source item name and its
// taxonomy term names. Title matches weigh highest, summary medium, message
// lowest. Multi-word names match as one phrase.
func RelatedPredicate(sourceName string, terms []string) RelatedMatch {
	match, ok := weightedTermMatch(terms)
	if !ok {
		return match
	}

	match.Where = sq.And{
		sq.NotEq{"name": sourceName},
		match.Where,
	}
	return match
}

// SearchMatch builds the match for a visitor search query split into terms.
// Unlike related-item lookup there is no source item to exclude.
func SearchMatch(terms []string) RelatedMatch {
	match, _ := weightedTermMatch(terms)
	return match
}

// weightedTermMatch scores items by where their text matches the terms. The
// second return reports whether any usable term was given; without one the
// match selects nothing rather than everything.
func weightedTermMatch(terms []string) (RelatedMatch, bool) {
	var (
		scoreParts []string
		scoreArgs  []interface{}
		contains   sq.Or
	)

	weighted := []struct {
		field  string
		weight int
	}{
		{"title", searchBoostVeryImportant},
		{"summary", searchBoostMedium},
		{"message", searchBoostLess},
	}

	for _, w := range weighted {
		for _, term := range terms {
			if strings.TrimSpace(term) == "" {
				continue
			}
			pattern := containsPattern(term)

			scoreParts = append(scoreParts, "CASE WHEN "+w.field+" ILIKE ? THEN ? ELSE 0 END")
			scoreArgs = append(scoreArgs, pattern, w.weight)
			contains = append(contains, sq.ILike{w.field: pattern})
		}
	}

	if len(contains) == 0 {
		return RelatedMatch{
			Score: sq.Expr("0"),
			Where: sq.Expr("1 = 0"),
		}, false
	}

	return RelatedMatch{
		Score: sq.Expr("("+strings.Join(scoreParts, " + ")+")", scoreArgs...),
		Where: contains,
	}, true
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// escapeLike neutralizes LIKE wildcards in free text before it is bound as a
// pattern argument.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
