package tinder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User is a profile shown in recommendations or fetched by id.
type User struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	BirthDate  time.Time `json:"birth_date,omitzero"`
	Gender     int       `json:"gender"`
	DistanceMi float64   `json:"distance_mi"`
	Photos     []Photo   `json:"photos"`
}

func (u User) String() string {
	return u.Name
}

// BioContains reports whether the bio mentions any keyword, ignoring case.
func (u User) BioContains(keywords ...string) bool {
	bio := strings.ToLower(u.Bio)
	for _, k := range keywords {
		if k != "" && strings.Contains(bio, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// Photo is a profile picture with its resized renditions.
type Photo struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	ProcessedFiles []ProcessedFile `json:"processedFiles"`
}

// ProcessedFile is one rendition of a photo.
type ProcessedFile struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Sizes maps "WIDTHxHEIGHT" to the rendition URL.
func (p Photo) Sizes() map[string]string {
	out := make(map[string]string, len(p.ProcessedFiles))
	for _, f := range p.ProcessedFiles {
		out[fmt.Sprintf("%dx%d", f.Width, f.Height)] = f.URL
	}
	return out
}

// Profile is the authenticated account.
type Profile struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	BirthDate      time.Time `json:"birth_date,omitzero"`
	CreateDate     time.Time `json:"create_date,omitzero"`
	Gender         int       `json:"gender"`
	GenderFilter   int       `json:"gender_filter"`
	DistanceFilter int       `json:"distance_filter"`
	AgeFilterMin   int       `json:"age_filter_min"`
	AgeFilterMax   int       `json:"age_filter_max"`
	Photos         []Photo   `json:"photos"`
}

// ProfileUpdate changes discovery preferences. Nil fields are left unchanged.
type ProfileUpdate struct {
	AgeFilterMin   *int    `json:"age_filter_min,omitempty"`
	AgeFilterMax   *int    `json:"age_filter_max,omitempty"`
	Gender         *int    `json:"gender,omitempty"`
	GenderFilter   *int    `json:"gender_filter,omitempty"`
	DistanceFilter *int    `json:"distance_filter,omitempty"`
	Bio            *string `json:"bio,omitempty"`
}

// Match is a mutual like.
type Match struct {
	ID               string    `json:"_id"`
	Person           User      `json:"person"`
	Messages         []Message `json:"messages"`
	CreatedDate      time.Time `json:"created_date,omitzero"`
	LastActivityDate time.Time `json:"last_activity_date,omitzero"`
}

// Message is one chat message within a match.
type Message struct {
	ID       string    `json:"_id"`
	MatchID  string    `json:"match_id"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Message  string    `json:"message"`
	SentDate time.Time `json:"sent_date,omitzero"`
}

// LikeResult is the response to a like, pass or super like.
type LikeResult struct {
	// Match is false, or the new match object when the like was mutual.
	Match          json.RawMessage `json:"match,omitempty"`
	LikesRemaining int             `json:"likes_remaining"`
	// RateLimitedUntil is a Unix millisecond timestamp when likes are exhausted.
	RateLimitedUntil int64 `json:"rate_limited_until,omitempty"`
}

// Matched reports whether the swipe created a match.
func (r LikeResult) Matched() bool {
	m := bytes.TrimSpace(r.Match)
	return len(m) > 0 && !bytes.Equal(m, []byte("false")) && !bytes.Equal(m, []byte("null"))
}

// OutOfLikes reports whether the account has hit its like limit.
func (r LikeResult) OutOfLikes() bool {
	return r.RateLimitedUntil > 0
}

// Location is a Passport coordinate.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ReportCause classifies a report.
type ReportCause int

const (
	ReportOther                 ReportCause = 0
	ReportSpam                  ReportCause = 1
	ReportInappropriatePictures ReportCause = 4
)

// Meta is account metadata.
type Meta struct {
	Rating struct {
		LikesRemaining int `json:"likes_remaining"`
		SuperLikes     struct {
			Remaining int `json:"remaining"`
		} `json:"super_likes"`
	} `json:"rating"`
	Travel struct {
		IsTraveling bool `json:"is_traveling"`
	} `json:"travel"`
}

// Teaser is a blurred preview of someone who liked the account.
type Teaser struct {
	Type string `json:"type"`
	User User   `json:"user"`
}

// Updates is activity since a point in time.
type Updates struct {
	Matches          []Match   `json:"matches"`
	Blocks           []string  `json:"blocks"`
	LastActivityDate time.Time `json:"last_activity_date,omitzero"`
}

type messageBody struct {
	Message string `json:"message"`
}

type reportBody struct {
	Cause ReportCause `json:"cause"`
	Text  string      `json:"text"`
}

type updatesBody struct {
	LastActivityDate string `json:"last_activity_date"`
}

type recsResponse struct {
	Status  int    `json:"status"`
	Results []User `json:"results"`
}

type recsV2Response struct {
	Data struct {
		Results []struct {
			Type string `json:"type"`
			User User   `json:"user"`
		} `json:"results"`
	} `json:"data"`
	// Some deployments answer with the v1 shape.
	Results []User `json:"results"`
}

type matchesResponse struct {
	Data struct {
		Matches   []Match `json:"matches"`
		NextToken string  `json:"next_page_token"`
	} `json:"data"`
}

type teasersResponse struct {
	Data struct {
		Results []Teaser `json:"results"`
	} `json:"data"`
}

type countResponse struct {
	Data struct {
		Count int `json:"count"`
	} `json:"data"`
}

type gatewayTokenResponse struct {
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

type resultsEnvelope[T any] struct {
	Results T `json:"results"`
}
