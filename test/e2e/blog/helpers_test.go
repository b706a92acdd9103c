package blog_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/blogd/pkg/blogsdk"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and shared assertions for the blog service end-to-end
 * tests. The image is built once per run from cmd/blog/Dockerfile.
 */

const (
	testImageName = "blogd-test:latest"

	testPassword = "correct horse battery"

	accessSecret  = "e2e-access-secret-0123456789abcdefghijkl"
	refreshSecret = "e2e-refresh-secret-0123456789abcdefghijk"
)

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Fprintln(os.Stdout, "skipping blog e2e tests in short mode")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Blog Service Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Blog Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/blog/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// baseEnv is the sqlite, disk media, store revocation configuration with
// relaxed rate limits. Cookies are not Secure so the SDK's jar sends them
// over plain http.
func baseEnv() map[string]string {
	return map[string]string{
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
		"REVOCATION_BACKEND":  "store",
		"AUTH_ACCESS_SECRET":  accessSecret,
		"AUTH_REFRESH_SECRET": refreshSecret,
		"AUTH_COOKIE_SECURE":  "false",

		"RATELIMIT_AUTH_REQUESTS":  "1000",
		"RATELIMIT_AUTH_BURST":     "1000",
		"RATELIMIT_WRITE_REQUESTS": "1000",
		"RATELIMIT_WRITE_BURST":    "1000",
	}
}

type containerOption func(*testcontainers.ContainerRequest)

func withEnv(kv map[string]string) containerOption {
	return func(req *testcontainers.ContainerRequest) {
		for k, v := range kv {
			req.Env[k] = v
		}
	}
}

func withoutEnv(keys ...string) containerOption {
	return func(req *testcontainers.ContainerRequest) {
		for _, k := range keys {
			delete(req.Env, k)
		}
	}
}

func withNetwork(name string) containerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Networks = append(req.Networks, name)
	}
}

// setupBlogContainer starts the service and returns its base URL.
func setupBlogContainer(t *testing.T, opts ...containerOption) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          baseEnv(),
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}
	for _, opt := range opts {
		opt(&req)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startDependency runs image on net under alias and waits for port.
func startDependency(t *testing.T, net *testcontainers.DockerNetwork, image, alias string, port nat.Port) {
	t.Helper()

	container, err := testcontainers.GenericContainer(context.Background(), testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:          image,
			ExposedPorts:   []string{string(port)},
			Networks:       []string{net.Name},
			NetworkAliases: map[string][]string{net.Name: {alias}},
			WaitingFor:     wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)
}

func newNetwork(t *testing.T) *testcontainers.DockerNetwork {
	t.Helper()
	net, err := network.New(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := net.Remove(context.Background()); err != nil {
			t.Logf("failed to remove network: %v", err)
		}
	})
	return net
}

func newClient(t *testing.T, baseURL string) *blogsdk.Client {
	t.Helper()
	c, err := blogsdk.NewClient(baseURL)
	require.NoError(t, err)
	return c
}

// registerAndLogin returns a client holding a session for username.
func registerAndLogin(t *testing.T, baseURL, username string) (*blogsdk.Client, *blogsdk.UserResponse) {
	t.Helper()
	ctx := t.Context()

	c := newClient(t, baseURL)
	_, err := c.Register(ctx, username, testPassword)
	require.NoError(t, err, "register %s", username)
	u, err := c.Login(ctx, username, testPassword)
	require.NoError(t, err, "login %s", username)
	require.NotEmpty(t, c.AccessToken(), "login should return an access token")
	return c, u
}

func assertHealthy(t *testing.T, health *blogsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertAPIError checks the status and error code of a failed call.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *blogsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, "unexpected status: %v", err)
	require.Equal(t, code, apiErr.Code, "unexpected code: %v", err)
}
