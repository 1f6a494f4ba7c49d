package tinder

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Recommendations returns users to swipe on, from the v2 endpoint.
func (c *Client) Recommendations(ctx context.Context) ([]User, error) {
	var resp recsV2Response
	if err := c.do(ctx, RecsV2Request(c.config.Locale), &resp); err != nil {
		return nil, err
	}
	if len(resp.Data.Results) == 0 {
		return resp.Results, nil
	}
	users := make([]User, 0, len(resp.Data.Results))
	for _, r := range resp.Data.Results {
		users = append(users, r.User)
	}
	return users, nil
}

// RecommendationsV1 returns users to swipe on, from the legacy endpoint.
func (c *Client) RecommendationsV1(ctx context.Context) ([]User, error) {
	var resp recsResponse
	if err := c.do(ctx, RecsRequest(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Like swipes right on a user.
func (c *Client) Like(ctx context.Context, userID string) (LikeResult, error) {
	var r LikeResult
	err := c.do(ctx, LikeRequest(userID), &r)
	return r, err
}

// Pass swipes left on a user.
func (c *Client) Pass(ctx context.Context, userID string) error {
	return c.do(ctx, PassRequest(userID), nil)
}

// SuperLike super likes a user.
func (c *Client) SuperLike(ctx context.Context, userID string) (LikeResult, error) {
	var r LikeResult
	err := c.do(ctx, SuperLikeRequest(userID), &r)
	return r, err
}

// Matches lists up to count matches.
func (c *Client) Matches(ctx context.Context, count int, withMessages bool) ([]Match, error) {
	var resp matchesResponse
	if err := c.do(ctx, MatchesRequest(count, withMessages, c.config.Locale), &resp); err != nil {
		return nil, err
	}
	return resp.Data.Matches, nil
}

// Match fetches one match.
func (c *Client) Match(ctx context.Context, matchID string) (Match, error) {
	var resp resultsEnvelope[Match]
	err := c.do(ctx, MatchRequest(matchID), &resp)
	return resp.Results, err
}

// SendMessage posts text to a match and returns the stored message.
func (c *Client) SendMessage(ctx context.Context, matchID, text string) (Message, error) {
	var m Message
	err := c.do(ctx, SendMessageRequest(matchID, text), &m)
	return m, err
}

// Unmatch removes a match.
func (c *Client) Unmatch(ctx context.Context, matchID string) error {
	return c.do(ctx, UnmatchRequest(matchID), nil)
}

// Travel moves the account to a coordinate.
func (c *Client) Travel(ctx context.Context, lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return errors.New("tinder: coordinate out of range")
	}
	return c.do(ctx, TravelRequest(lat, lon), nil)
}

// ResetLocation returns the account to its real location.
func (c *Client) ResetLocation(ctx context.Context) error {
	return c.do(ctx, ResetLocationRequest(), nil)
}

// Profile fetches the authenticated account.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.do(ctx, ProfileRequest(), &p)
	return p, err
}

// UpdateProfile changes discovery preferences and returns the new profile.
func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (Profile, error) {
	var p Profile
	err := c.do(ctx, UpdateProfileRequest(u), &p)
	return p, err
}

// User fetches another user's profile.
func (c *Client) User(ctx context.Context, userID string) (User, error) {
	var resp resultsEnvelope[User]
	err := c.do(ctx, UserRequest(userID), &resp)
	return resp.Results, err
}

// Report reports a user.
func (c *Client) Report(ctx context.Context, userID string, cause ReportCause, text string) error {
	return c.do(ctx, ReportRequest(userID, cause, text), nil)
}

// Updates fetches activity since the given time; the zero time means all.
func (c *Client) Updates(ctx context.Context, since time.Time) (Updates, error) {
	var u Updates
	err := c.do(ctx, UpdatesRequest(since), &u)
	return u, err
}

// Meta fetches account metadata.
func (c *Client) Meta(ctx context.Context) (Meta, error) {
	var m Meta
	err := c.do(ctx, MetaRequest(), &m)
	return m, err
}

// MetaV2 fetches v2 account metadata as raw JSON; its shape changes often.
func (c *Client) MetaV2(ctx context.Context) (json.RawMessage, error) {
	out := c.dispatcher.Execute(ctx, MetaV2Request())
	return out.Body, out.Error()
}

// Teasers returns blurred previews of users who liked the account.
func (c *Client) Teasers(ctx context.Context) ([]Teaser, error) {
	var resp teasersResponse
	if err := c.do(ctx, TeasersRequest(), &resp); err != nil {
		return nil, err
	}
	return resp.Data.Results, nil
}

// LikesCount returns how many users liked the account.
func (c *Client) LikesCount(ctx context.Context) (int, error) {
	var resp countResponse
	err := c.do(ctx, LikesCountRequest(), &resp)
	return resp.Data.Count, err
}

// MyLikes returns the raw list of users the account liked.
func (c *Client) MyLikes(ctx context.Context) (json.RawMessage, error) {
	out := c.dispatcher.Execute(ctx, MyLikesRequest(c.config.Locale))
	return out.Body, out.Error()
}

// GatewayToken issues a token for the realtime gateway.
func (c *Client) GatewayToken(ctx context.Context) (string, error) {
	var resp gatewayTokenResponse
	if err := c.do(ctx, GatewayTokenRequest(c.config.Locale), &resp); err != nil {
		return "", err
	}
	if resp.Token != "" {
		return resp.Token, nil
	}
	if resp.Data.Token != "" {
		return resp.Data.Token, nil
	}
	return "", errors.New("tinder: gateway token missing from response")
}
