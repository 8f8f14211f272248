// Package entities parses the nested entity annotations of a tweet
// (urls, media, hashtags, mentions, symbols) into flat string lists.
package entities

import "github.com/perchlab/aviary/pkg/aviary/tweet"

// Bundle holds the entity annotations of one tweet as parallel ordered
// lists. Lists are always non-nil, possibly empty.
type Bundle struct {
	URLs         []string
	Media        []string
	Hashtags     []string
	MentionIDs   []string
	MentionNames []string
	Symbols      []string
}

func empty() Bundle {
	return Bundle{
		URLs:         []string{},
		Media:        []string{},
		Hashtags:     []string{},
		MentionIDs:   []string{},
		MentionNames: []string{},
		Symbols:      []string{},
	}
}

// merge appends o's lists after b's, preserving order within each.
func (b *Bundle) merge(o Bundle) {
	b.URLs = append(b.URLs, o.URLs...)
	b.Media = append(b.Media, o.Media...)
	b.Hashtags = append(b.Hashtags, o.Hashtags...)
	b.MentionIDs = append(b.MentionIDs, o.MentionIDs...)
	b.MentionNames = append(b.MentionNames, o.MentionNames...)
	b.Symbols = append(b.Symbols, o.Symbols...)
}

// Extract gathers the tweet's entities. For a truncated tweet the
// extended containers contribute after the base set: base, then
// extended_tweet.entities, then extended_tweet.extended_entities.
// No deduplication is applied.
func Extract(t tweet.Raw) (Bundle, error) {
	ent, err := t.Child("entities")
	if err != nil {
		return Bundle{}, err
	}
	b, err := parse(ent)
	if err != nil {
		return Bundle{}, err
	}
	if !t.Truncated() {
		return b, nil
	}
	ext, err := t.Extended()
	if err != nil {
		return Bundle{}, err
	}
	if ext == nil {
		return b, nil
	}
	for _, key := range []string{"entities", "extended_entities"} {
		more, err := ext.Child(key)
		if err != nil {
			return Bundle{}, err
		}
		if more == nil {
			continue
		}
		mb, err := parse(more)
		if err != nil {
			return Bundle{}, err
		}
		b.merge(mb)
	}
	return b, nil
}

// parse maps one entities object (possibly nil) to a Bundle. Sub-object
// fields that are absent degrade to empty strings rather than failing.
func parse(ent tweet.Raw) (Bundle, error) {
	b := empty()
	if ent == nil {
		return b, nil
	}
	urls, err := ent.List("urls")
	if err != nil {
		return Bundle{}, err
	}
	for _, u := range urls {
		s, _ := u.Str("expanded_url")
		b.URLs = append(b.URLs, s)
	}
	media, err := ent.List("media")
	if err != nil {
		return Bundle{}, err
	}
	for _, m := range media {
		s, _ := m.Str("media_url")
		b.Media = append(b.Media, s)
	}
	hashtags, err := ent.List("hashtags")
	if err != nil {
		return Bundle{}, err
	}
	for _, h := range hashtags {
		s, _ := h.Str("text")
		b.Hashtags = append(b.Hashtags, s)
	}
	mentions, err := ent.List("user_mentions")
	if err != nil {
		return Bundle{}, err
	}
	for _, m := range mentions {
		id, _ := m.Str("id_str")
		name, _ := m.Str("screen_name")
		b.MentionIDs = append(b.MentionIDs, id)
		b.MentionNames = append(b.MentionNames, name)
	}
	symbols, err := ent.List("symbols")
	if err != nil {
		return Bundle{}, err
	}
	for _, s := range symbols {
		text, _ := s.Str("text")
		b.Symbols = append(b.Symbols, text)
	}
	return b, nil
}
