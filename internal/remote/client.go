// Package remote implements the stateless fetch-and-map layer over the LMS
// HTTP API. Every call takes the session credential explicitly; the package
// holds no session state. Network and serialization failures are converted
// to errors at this boundary and never carry partial data upward, except
// for the per-course fan-out, where partial success is the policy.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/NatsuCamellia/cool-tracker/internal/common"
	"github.com/NatsuCamellia/cool-tracker/internal/logging"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// defaultAvatarURL substitutes for a missing avatar at the mapping
	// boundary, so the rest of the app never sees an absent one.
	defaultAvatarURL = "https://cool.ntu.edu.tw/images/messages/avatar-50.png"

	// maxPageSize matches the API's maximum page size; 100 active courses
	// or assignments per course is beyond any real workload, which lets us
	// skip pagination entirely.
	maxPageSize = 100

	defaultFanOutLimit = 8
	defaultRate        = rate.Limit(10)
	defaultBurst       = 20
)

// Provider is the data-fetching surface consumed by the sync orchestrator.
type Provider interface {
	// GetUserProfile fetches and maps the current user's profile.
	GetUserProfile(ctx context.Context, credential string) (*models.Profile, error)

	// GetActiveCoursesWithAssignments fetches the active courses and,
	// concurrently, each course's assignments. Courses whose assignment
	// fetch failed are dropped; an error is returned only when the
	// top-level course list fetch itself fails.
	GetActiveCoursesWithAssignments(ctx context.Context, credential string) ([]models.CourseWithAssignments, error)
}

// Validator is the credential-checking surface consumed by the session
// manager.
type Validator interface {
	// ValidateCredential reports nil for a confirmed-valid credential,
	// common.ErrUnauthorized for a confirmed-rejected one, and an error
	// wrapping common.ErrUnavailable when the outcome is indeterminate.
	ValidateCredential(ctx context.Context, credential string) error

	// Ping reports whether the LMS is reachable at all. Any HTTP response,
	// including an error status, counts as reachable.
	Ping(ctx context.Context) error
}

// Client talks to the LMS REST API. The credential travels exclusively in
// the Cookie header. Safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      logging.Logger
	limiter     *rate.Limiter
	fanOutLimit int
}

// NewClient returns a Client rooted at baseURL (no trailing slash). When
// httpClient is nil, http.DefaultClient's transport is used. Redirects are
// observed, not followed: a redirect to the login page is an authentication
// signal, not a path to take.
func NewClient(baseURL string, httpClient *http.Client, logger logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Client{
		httpClient:  &noRedirect,
		baseURL:     baseURL,
		logger:      logger,
		limiter:     rate.NewLimiter(defaultRate, defaultBurst),
		fanOutLimit: defaultFanOutLimit,
	}
}

// SetRequestRate adjusts the outbound request budget against the LMS. The
// burst is clamped to at least 1; a zero-burst limiter would reject every
// request outright.
func (c *Client) SetRequestRate(rps float64, burst int) {
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// SetFanOutLimit bounds how many per-course assignment fetches run at once.
func (c *Client) SetFanOutLimit(n int) {
	if n > 0 {
		c.fanOutLimit = n
	}
}

// get issues a rate-limited GET with the credential in the Cookie header.
func (c *Client) get(ctx context.Context, path, credential string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if credential != "" {
		req.Header.Set("Cookie", credential)
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// ValidateCredential checks the credential against the profile endpoint.
//
// Mapping: 2xx → nil; 401 or any redirect → common.ErrUnauthorized; every
// other status and every transport failure → common.ErrUnavailable. The
// unavailable bucket exists so a transient network blip never logs the user
// out.
func (c *Client) ValidateCredential(ctx context.Context, credential string) error {
	resp, err := c.get(ctx, "/users/self/profile", credential)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode >= 300 && resp.StatusCode < 400:
		return common.ErrUnauthorized
	default:
		return fmt.Errorf("%w: unexpected status %d", common.ErrUnavailable, resp.StatusCode)
	}
}

// Ping probes LMS reachability without a credential. Any HTTP response
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/users/self/profile", "")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	drainAndClose(resp.Body)
	return nil
}

func (c *Client) GetUserProfile(ctx context.Context, credential string) (*models.Profile, error) {
	resp, err := c.get(ctx, "/users/self/profile", credential)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn(ctx, "profile fetch returned error status", "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch profile: %w: status %d", common.ErrUnavailable, resp.StatusCode)
	}

	var dto profileDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return dto.toProfile(), nil
}

func (c *Client) GetActiveCoursesWithAssignments(ctx context.Context, credential string) ([]models.CourseWithAssignments, error) {
	path := fmt.Sprintf("/courses?enrollment_state=active&per_page=%d", maxPageSize)
	resp, err := c.get(ctx, path, credential)
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn(ctx, "course fetch returned error status", "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch courses: %w: status %d", common.ErrUnavailable, resp.StatusCode)
	}

	var dtos []courseDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}

	// Fan out one assignment fetch per course. Failures are independent:
	// a failed fetch drops its own course and nothing else, so goroutines
	// always return nil and record their result by slot.
	results := make([]*models.CourseWithAssignments, len(dtos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fanOutLimit)
	for i, dto := range dtos {
		g.Go(func() error {
			assignments, err := c.getCourseAssignments(gctx, dto.ID, credential)
			if err != nil {
				c.logger.Warn(gctx, "dropping course after failed assignment fetch",
					"course_id", dto.ID, "error", err.Error())
				return nil
			}
			results[i] = &models.CourseWithAssignments{
				Course:      dto.toCourse(),
				Assignments: assignments,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]models.CourseWithAssignments, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// getCourseAssignments fetches and maps one course's assignments.
func (c *Client) getCourseAssignments(ctx context.Context, courseID int, credential string) ([]models.Assignment, error) {
	path := fmt.Sprintf("/courses/%d/assignments?per_page=%d&include[]=submission", courseID, maxPageSize)
	resp, err := c.get(ctx, path, credential)
	if err != nil {
		return nil, fmt.Errorf("fetch assignments: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch assignments: %w: status %d", common.ErrUnavailable, resp.StatusCode)
	}

	var dtos []assignmentDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode assignments: %w", err)
	}
	return mapAssignments(dtos), nil
}

// drainAndClose finishes the body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
