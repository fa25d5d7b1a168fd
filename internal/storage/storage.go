package storage

import "errors"

var (
	ErrBlogNotFound        = errors.New("blog item not found")
	ErrBlogListUnavailable = errors.New("unable to read blog listing")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrContactNotFound     = errors.New("contact not found")
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)
