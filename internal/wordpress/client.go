// Package wordpress is a thin XML-RPC client for the parts of the WordPress
// API the blog importer needs: fetching every post of a site and resolving
// post authors to their profiles.
package wordpress

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/kolo/xmlrpc"
)

// Post is a WordPress post as returned by wp.getPosts, trimmed to the fields
// the importer asks for.
type Post struct {
	ID       string    `xmlrpc:"post_id"`
	Title    string    `xmlrpc:"post_title"`
	Content  string    `xmlrpc:"post_content"`
	AuthorID string    `xmlrpc:"post_author"`
	Date     time.Time `xmlrpc:"post_date"`
	Modified time.Time `xmlrpc:"post_modified"`
	Name     string    `xmlrpc:"post_name"`
	Terms    []Term    `xmlrpc:"terms"`
}

// Term is a taxonomy term attached to a post. Taxonomy is "category" or
// "post_tag".
type Term struct {
	ID       string `xmlrpc:"term_id"`
	Name     string `xmlrpc:"name"`
	Taxonomy string `xmlrpc:"taxonomy"`
}

// Profile is a WordPress user as returned by wp.getUser.
type Profile struct {
	FirstName string `xmlrpc:"first_name"`
	LastName  string `xmlrpc:"last_name"`
	Email     string `xmlrpc:"email"`
	Website   string `xmlrpc:"url"`
}

type Client struct {
	rpc *xmlrpc.Client
}

// NewClient dials the site's xmlrpc.php endpoint.
func NewClient(endpoint string, timeout time.Duration) (*Client, error) {
	const op = "wordpress.NewClient"

	rpc, err := xmlrpc.NewClient(endpoint, &http.Transport{
		ResponseHeaderTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Client{rpc: rpc}, nil
}

// Posts fetches every post of the blog in one call. WordPress pages results
// only when asked to, so the page size is pinned to the maximum.
func (c *Client) Posts(blogID int, username, password string) ([]Post, error) {
	const op = "wordpress.Client.Posts"

	filter := map[string]interface{}{
		"number": math.MaxInt32,
	}
	fields := []string{
		"post_id", "post_title", "post_content", "post_author",
		"post_date", "post_modified", "post_name", "terms",
	}

	var posts []Post
	if err := c.rpc.Call("wp.getPosts", []interface{}{blogID, username, password, filter, fields}, &posts); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

// User resolves a post's author id to the author's profile.
func (c *Client) User(blogID int, username, password, userID string) (Profile, error) {
	const op = "wordpress.Client.User"

	fields := []string{"first_name", "last_name", "email", "url"}

	var profile Profile
	if err := c.rpc.Call("wp.getUser", []interface{}{blogID, username, password, userID, fields}, &profile); err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

func (c *Client) Close() error {
	return c.rpc.Close()
}
