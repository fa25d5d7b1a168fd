package repository_test

import (
	"testing"
	"time"

	"github.com/tricode/magnolia-blog/internal/repository"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toSql(t *testing.T, pred sq.Sqlizer) (string, []interface{}) {
	t.Helper()
	sql, args, err := pred.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestDescendantPredicate(t *testing.T) {
	t.Run("scoped path", func(t *testing.T) {
		sql, args := toSql(t, repository.DescendantPredicate("/blogs/tech"))
		assert.Equal(t, "path LIKE ?", sql)
		assert.Equal(t, []interface{}{`/blogs/tech/%`}, args)
	})

	t.Run("blank scope covers the whole tree", func(t *testing.T) {
		_, args := toSql(t, repository.DescendantPredicate(""))
		assert.Equal(t, []interface{}{`/%`}, args)
	})

	t.Run("like metacharacters are escaped", func(t *testing.T) {
		_, args := toSql(t, repository.DescendantPredicate("/b_log%"))
		assert.Equal(t, []interface{}{`/b\_log\%/%`}, args)
	})
}

func TestCategoryPredicate(t *testing.T) {
	id := uuid.New()

	sql, args := toSql(t, repository.CategoryPredicate(id))
	assert.Contains(t, sql, "categories LIKE")
	assert.Equal(t, []interface{}{"%" + id.String() + "%"}, args)
}

func TestAnyCategoryPredicate(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	sql, args := toSql(t, repository.AnyCategoryPredicate([]uuid.UUID{a, b}))
	assert.Contains(t, sql, " OR ")
	assert.Equal(t, []interface{}{"%" + a.String() + "%", "%" + b.String() + "%"}, args)
}

func TestDateRangePredicate(t *testing.T) {
	bounds := func(t *testing.T, year, month int, hasMonth bool) (time.Time, time.Time) {
		t.Helper()
		_, args := toSql(t, repository.DateRangePredicate(year, month, hasMonth))
		require.Len(t, args, 2)
		return args[0].(time.Time), args[1].(time.Time)
	}

	t.Run("full year", func(t *testing.T) {
		start, end := bounds(t, 2015, 0, false)
		assert.Equal(t, time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2015, time.December, 31, 23, 59, 59, 999000000, time.UTC), end)
	})

	t.Run("single month", func(t *testing.T) {
		start, end := bounds(t, 2015, 4, true)
		assert.Equal(t, time.Date(2015, time.April, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2015, time.April, 30, 23, 59, 59, 999000000, time.UTC), end)
	})

	t.Run("february of a non-leap year ends on the 28th", func(t *testing.T) {
		start, end := bounds(t, 2011, 2, true)
		assert.Equal(t, time.Date(2011, time.February, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2011, time.February, 28, 23, 59, 59, 999000000, time.UTC), end)
	})

	t.Run("december end is the millisecond before new year", func(t *testing.T) {
		_, end := bounds(t, 2015, 12, true)
		assert.Equal(t, time.Date(2015, time.December, 31, 23, 59, 59, 999000000, time.UTC), end)
	})

	t.Run("month zero rolls back into the previous year", func(t *testing.T) {
		start, end := bounds(t, 2015, 0, true)
		assert.Equal(t, time.Date(2014, time.December, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2014, time.December, 31, 23, 59, 59, 999000000, time.UTC), end)
	})

	t.Run("month thirteen rolls over into the next year", func(t *testing.T) {
		start, end := bounds(t, 2015, 13, true)
		assert.Equal(t, time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2016, time.January, 31, 23, 59, 59, 999000000, time.UTC), end)
	})
}

func TestRelatedPredicate(t *testing.T) {
	t.Run("weighted score and term match", func(t *testing.T) {
		match := repository.RelatedPredicate("source-post", []string{"coffee", "beans"})

		scoreSql, scoreArgs := toSql(t, match.Score)
		assert.Contains(t, scoreSql, "CASE WHEN title ILIKE ? THEN ? ELSE 0 END")
		assert.Contains(t, scoreSql, "CASE WHEN summary ILIKE ? THEN ? ELSE 0 END")
		assert.Contains(t, scoreSql, "CASE WHEN message ILIKE ? THEN ? ELSE 0 END")
		// two terms per field, pattern then weight
		require.Len(t, scoreArgs, 12)
		assert.Equal(t, "%coffee%", scoreArgs[0])
		assert.Equal(t, 10, scoreArgs[1])
		assert.Equal(t, "%beans%", scoreArgs[2])
		assert.Equal(t, 10, scoreArgs[3])
		assert.Equal(t, 5, scoreArgs[5])
		assert.Equal(t, 2, scoreArgs[9])

		whereSql, whereArgs := toSql(t, match.Where)
		assert.Contains(t, whereSql, "name <> ?")
		assert.Contains(t, whereArgs, "source-post")
	})

	t.Run("no terms matches nothing", func(t *testing.T) {
		match := repository.RelatedPredicate("source-post", nil)

		scoreSql, _ := toSql(t, match.Score)
		assert.Equal(t, "0", scoreSql)

		whereSql, _ := toSql(t, match.Where)
		assert.Equal(t, "1 = 0", whereSql)
	})
}

func TestSearchMatch(t *testing.T) {
	t.Run("weighted score without a source exclusion", func(t *testing.T) {
		match := repository.SearchMatch([]string{"coffee", "beans"})

		scoreSql, scoreArgs := toSql(t, match.Score)
		assert.Contains(t, scoreSql, "CASE WHEN title ILIKE ? THEN ? ELSE 0 END")
		require.Len(t, scoreArgs, 12)
		assert.Equal(t, "%coffee%", scoreArgs[0])
		assert.Equal(t, 10, scoreArgs[1])

		whereSql, whereArgs := toSql(t, match.Where)
		assert.NotContains(t, whereSql, "name <>")
		assert.Contains(t, whereSql, "title ILIKE ?")
		assert.Contains(t, whereArgs, "%beans%")
	})

	t.Run("no terms matches nothing", func(t *testing.T) {
		match := repository.SearchMatch([]string{"  "})

		whereSql, _ := toSql(t, match.Where)
		assert.Equal(t, "1 = 0", whereSql)
	})
}

func TestEmailPredicate(t *testing.T) {
	sql, args := toSql(t, repository.EmailPredicate("John.Doe@Example.com"))
	assert.Equal(t, "LOWER(email) = LOWER(?)", sql)
	assert.Equal(t, []interface{}{"John.Doe@Example.com"}, args)
}

func TestPublishedPredicate(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	sql, args := toSql(t, repository.PublishedPredicate(now))
	assert.Contains(t, sql, "publish_date IS NULL")
	assert.Contains(t, sql, "publish_date <= ?")
	assert.Equal(t, []interface{}{now}, args)
}
