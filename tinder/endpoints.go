package tinder

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/petal-labs/swipe/core"
)

// Endpoint catalog. Each function describes one remote operation as a
// core.LogicalRequest and performs no I/O.
//
// Reads are SafeToRetry. Every call that changes remote state is
// NotSafeToRetry, including like and pass even though they use GET: a
// duplicate swipe is visible to the other user and spends a like.

func get(op, path string, query url.Values) core.LogicalRequest {
	return core.LogicalRequest{
		Operation:   op,
		Method:      http.MethodGet,
		Path:        path,
		Query:       query,
		Idempotency: core.SafeToRetry,
	}
}

func mutate(op, method, path string, body any) core.LogicalRequest {
	return core.LogicalRequest{
		Operation:   op,
		Method:      method,
		Path:        path,
		Body:        body,
		Idempotency: core.NotSafeToRetry,
	}
}

func localeQuery(locale string) url.Values {
	if locale == "" {
		return nil
	}
	return url.Values{"locale": {locale}}
}

func segment(id string) string {
	return url.PathEscape(id)
}

// RecsRequest fetches recommendations from the v1 endpoint.
func RecsRequest() core.LogicalRequest {
	return get("recs", "/user/recs", nil)
}

// RecsV2Request fetches recommendations from the v2 endpoint, which tracks
// location changes more closely.
func RecsV2Request(locale string) core.LogicalRequest {
	return get("recs_v2", "/v2/recs/core", localeQuery(locale))
}

// LikeRequest swipes right on a user.
func LikeRequest(userID string) core.LogicalRequest {
	return mutate("like", http.MethodGet, "/like/"+segment(userID), nil)
}

// PassRequest swipes left on a user.
func PassRequest(userID string) core.LogicalRequest {
	return mutate("pass", http.MethodGet, "/pass/"+segment(userID), nil)
}

// SuperLikeRequest super likes a user.
func SuperLikeRequest(userID string) core.LogicalRequest {
	return mutate("superlike", http.MethodPost, "/like/"+segment(userID)+"/super", nil)
}

// MatchesRequest lists matches. withMessages restricts the list to matches
// that have a conversation.
func MatchesRequest(count int, withMessages bool, locale string) core.LogicalRequest {
	q := localeQuery(locale)
	if q == nil {
		q = url.Values{}
	}
	q.Set("count", strconv.Itoa(count))
	message := "0"
	if withMessages {
		message = "1"
	}
	q.Set("message", message)
	return get("matches", "/v2/matches", q)
}

// MatchRequest fetches one match.
func MatchRequest(matchID string) core.LogicalRequest {
	return get("match", "/matches/"+segment(matchID), nil)
}

// SendMessageRequest posts a message to a match.
func SendMessageRequest(matchID, text string) core.LogicalRequest {
	return mutate("send_message", http.MethodPost, "/user/matches/"+segment(matchID), messageBody{Message: text})
}

// UnmatchRequest removes a match.
func UnmatchRequest(matchID string) core.LogicalRequest {
	return mutate("unmatch", http.MethodDelete, "/user/matches/"+segment(matchID), nil)
}

// TravelRequest moves the account to a coordinate (Passport).
func TravelRequest(lat, lon float64) core.LogicalRequest {
	return mutate("travel", http.MethodPost, "/passport/user/travel", Location{Lat: lat, Lon: lon})
}

// ResetLocationRequest returns the account to its real location.
func ResetLocationRequest() core.LogicalRequest {
	return mutate("reset_location", http.MethodPost, "/passport/user/reset", nil)
}

// ProfileRequest fetches the authenticated user's profile.
func ProfileRequest() core.LogicalRequest {
	return get("profile", "/profile", nil)
}

// UpdateProfileRequest changes discovery preferences.
func UpdateProfileRequest(u ProfileUpdate) core.LogicalRequest {
	return mutate("update_profile", http.MethodPost, "/profile", u)
}

// UserRequest fetches another user's profile.
func UserRequest(userID string) core.LogicalRequest {
	return get("user", "/user/"+segment(userID), nil)
}

// ReportRequest reports a user.
func ReportRequest(userID string, cause ReportCause, text string) core.LogicalRequest {
	return mutate("report", http.MethodPost, "/report/"+segment(userID), reportBody{Cause: cause, Text: text})
}

// UpdatesRequest fetches activity since the given time. It is a read carried
// in a POST body, so it is safe to repeat.
func UpdatesRequest(since time.Time) core.LogicalRequest {
	body := updatesBody{}
	if !since.IsZero() {
		body.LastActivityDate = since.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	req := mutate("updates", http.MethodPost, "/updates", body)
	req.Idempotency = core.SafeToRetry
	return req
}

// MetaRequest fetches account metadata.
func MetaRequest() core.LogicalRequest {
	return get("meta", "/meta", nil)
}

// MetaV2Request fetches v2 account metadata, including top picks.
func MetaV2Request() core.LogicalRequest {
	return get("meta_v2", "/v2/meta", nil)
}

// TeasersRequest fetches blurred previews of users who liked the account.
func TeasersRequest() core.LogicalRequest {
	return get("teasers", "/v2/fast-match/teasers", nil)
}

// LikesCountRequest fetches how many users liked the account. A read despite
// the POST method.
func LikesCountRequest() core.LogicalRequest {
	req := mutate("likes_count", http.MethodPost, "/v2/fast-match/count", nil)
	req.Idempotency = core.SafeToRetry
	return req
}

// MyLikesRequest lists users the account liked.
func MyLikesRequest(locale string) core.LogicalRequest {
	return get("my_likes", "/v2/my-likes", localeQuery(locale))
}

// GatewayTokenRequest issues a short-lived token for the realtime gateway.
func GatewayTokenRequest(locale string) core.LogicalRequest {
	return get("gateway_token", "/ws/generate", localeQuery(locale))
}
