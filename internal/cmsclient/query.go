package cmsclient

import (
	"net/url"
	"strconv"
)

// Query — построитель query-параметров CMS.
type Query struct {
	v url.Values
}

func NewQuery() Query {
	return Query{v: url.Values{}}
}

// Page — pagination[page] и pagination[pageSize].
func (q Query) Page(page, pageSize int) Query {
	q.init()
	q.v.Set("pagination[page]", strconv.Itoa(page))
	q.v.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	return q
}

func (q Query) Populate(v string) Query {
	q.init()
	q.v.Set("populate", v)
	return q
}

// TitleContains — filters[title][$contains]; пустая строка фильтр не добавляет.
func (q Query) TitleContains(s string) Query {
	q.init()
	if s != "" {
		q.v.Set("filters[title][$contains]", s)
	}
	return q
}

// ArticleDocumentID — filters[article][documentId][$eq].
func (q Query) ArticleDocumentID(id string) Query {
	q.init()
	q.v.Set("filters[article][documentId][$eq]", id)
	return q
}

// Sort — например "createdAt:desc".
func (q Query) Sort(v string) Query {
	q.init()
	q.v.Set("sort", v)
	return q
}

func (q Query) Encode() string {
	if q.v == nil {
		return ""
	}
	return q.v.Encode()
}

func (q Query) Values() url.Values {
	out := url.Values{}
	for k, vs := range q.v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (q *Query) init() {
	if q.v == nil {
		q.v = url.Values{}
	}
}
