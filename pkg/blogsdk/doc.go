/*
Package blogsdk is a Go client for the blog service.

A Client behaves like a browser: Login stores the session cookies in the
client's jar and remembers the access token the service returns in the
Authorization header. Later calls send both, so silent renewal on the
server is transparent.

	c, err := blogsdk.NewClient("http://localhost:8080")
	if err != nil {
		return err
	}
	if _, err := c.Login(ctx, "alice", "correct horse"); err != nil {
		return err
	}
	post, err := c.CreatePost(ctx, blogsdk.PostRequest{
		Title:     "Hello",
		Content:   "First post",
		CoverName: "cover.png",
		Cover:     png,
	})

Failed calls return *APIError carrying the HTTP status and the service's
error code. IsCode matches on the code:

	if blogsdk.IsCode(err, blogsdk.ErrorCodeUsernameTaken) {
		...
	}

The session cookies are marked Secure by default. Against a plain HTTP
deployment the service must be configured with AUTH_COOKIE_SECURE=false,
otherwise only the bearer token is sent.
*/
package blogsdk
