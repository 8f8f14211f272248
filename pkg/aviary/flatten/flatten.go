// Package flatten maps raw tweet objects onto the fixed records and
// users table schemas.
package flatten

import (
	"github.com/perchlab/aviary/pkg/aviary/entities"
	"github.com/perchlab/aviary/pkg/aviary/tweet"
)

// ScalarFields are the record columns copied directly from the tweet, in
// output order.
var ScalarFields = []string{
	"timestamp_ms", "in_reply_to_screen_name", "in_reply_to_user_id_str",
	"favorite_count", "quote_count", "coordinates", "favorited", "id_str",
	"text", "in_reply_to_user_id", "place", "geo", "retweet_count",
	"reply_count", "in_reply_to_status_id", "retweeted", "is_quote_status",
	"filter_level", "lang", "in_reply_to_status_id_str", "created_at",
	"source", "contributors",
}

// RefFields hold the id of an embedded retweeted/quoted status instead of
// the nested object; the embedded tweet is handed back for independent
// processing.
var RefFields = []string{"retweeted_status", "quoted_status"}

// EntityFields are the record columns holding entity lists, in output
// order.
var EntityFields = []string{
	"urls", "user_id_mentions", "user_screenname_mentions", "symbols",
	"hashtags", "media",
}

// UserFields are copied from the user sub-object into the users table,
// each prefixed "user." on output.
var UserFields = []string{
	"statuses_count", "utc_offset", "listed_count", "translator_type",
	"followers_count", "time_zone", "name", "protected", "screen_name",
	"is_translator", "contributors_enabled", "url", "id_str", "location",
	"created_at", "geo_enabled", "description", "lang", "profile_image_url",
	"profile_background_image_url", "favourites_count", "verified",
	"friends_count",
}

// Columns returns the records table header in output order.
func Columns() []string {
	cols := make([]string, 0, len(ScalarFields)+len(RefFields)+len(EntityFields)+1)
	cols = append(cols, ScalarFields...)
	cols = append(cols, RefFields...)
	cols = append(cols, EntityFields...)
	cols = append(cols, "user.id_str")
	return cols
}

// UserColumns returns the users table header in output order.
func UserColumns() []string {
	cols := make([]string, 0, len(UserFields)+1)
	for _, f := range UserFields {
		cols = append(cols, "user."+f)
	}
	cols = append(cols, "tweet.created_at")
	return cols
}

// Record is one flattened tweet keyed by records table column name. The
// key set is always exactly Columns(); absent inputs are stored as nil.
type Record map[string]any

// UserSnapshot is one author profile row keyed by users table column
// name.
type UserSnapshot map[string]any

// Tweet flattens one raw tweet. Embedded retweeted/quoted statuses are
// replaced by their id and returned raw, retweeted first, so the caller
// can process each as a top-level record of its own.
func Tweet(t tweet.Raw) (Record, []tweet.Raw, error) {
	rec := make(Record, len(ScalarFields)+len(RefFields)+len(EntityFields)+1)
	for _, f := range ScalarFields {
		rec[f] = t.Value(f)
	}
	if t.Truncated() {
		ext, err := t.Extended()
		if err != nil {
			return nil, nil, err
		}
		if ext != nil {
			rec["text"] = ext.Value("full_text")
		}
	}
	bundle, err := entities.Extract(t)
	if err != nil {
		return nil, nil, err
	}
	rec["urls"] = bundle.URLs
	rec["user_id_mentions"] = bundle.MentionIDs
	rec["user_screenname_mentions"] = bundle.MentionNames
	rec["symbols"] = bundle.Symbols
	rec["hashtags"] = bundle.Hashtags
	rec["media"] = bundle.Media
	var refs []tweet.Raw
	for _, f := range RefFields {
		rec[f] = nil
		ref, err := t.Child(f)
		if err != nil {
			return nil, nil, err
		}
		if ref != nil {
			rec[f] = ref.Value("id_str")
			refs = append(refs, ref)
		}
	}
	user, err := t.Child("user")
	if err != nil {
		return nil, nil, err
	}
	rec["user.id_str"] = nil
	if user != nil {
		rec["user.id_str"] = user.Value("id_str")
	}
	return rec, refs, nil
}

// User captures the author's profile state at tweet time. A tweet
// without a user sub-object yields an all-null snapshot.
func User(t tweet.Raw) (UserSnapshot, error) {
	user, err := t.Child("user")
	if err != nil {
		return nil, err
	}
	snap := make(UserSnapshot, len(UserFields)+1)
	for _, f := range UserFields {
		snap["user."+f] = nil
		if user != nil {
			snap["user."+f] = user.Value(f)
		}
	}
	snap["tweet.created_at"] = t.Value("created_at")
	return snap, nil
}
