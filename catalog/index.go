package catalog

import (
	"bytes"

	"github.com/beyondbrewing/bookstore/storage"
)

const indexSep = 0x00

func indexPrefix(value string) []byte {
	return append([]byte(value), indexSep)
}

func indexKey(value, isbn string) []byte {
	return append(indexPrefix(value), isbn...)
}

// indexISBN extracts the ISBN suffix of an index key. Values never
// contain 0x00, so the first separator is the boundary.
func indexISBN(key []byte) string {
	i := bytes.IndexByte(key, indexSep)
	if i < 0 {
		return ""
	}
	return string(key[i+1:])
}

// pickIndex chooses the index table for a filter without an ISBN.
func pickIndex(f Book) (cf, value string) {
	switch {
	case f.Title != "":
		return storage.CFTitleIndex, f.Title
	case f.Author != "":
		return storage.CFAuthorIndex, f.Author
	case f.Keywords != "":
		return storage.CFKeywordIndex, f.Keywords
	}
	return "", ""
}

func addIndexes(tx *storage.Tx, b Book) {
	if b.Title != "" {
		tx.Put(storage.CFTitleIndex, indexKey(b.Title, b.ISBN), nil)
	}
	if b.Author != "" {
		tx.Put(storage.CFAuthorIndex, indexKey(b.Author, b.ISBN), nil)
	}
	for _, kw := range b.KeywordList() {
		tx.Put(storage.CFKeywordIndex, indexKey(kw, b.ISBN), nil)
	}
}

func removeIndexes(tx *storage.Tx, b Book) {
	if b.Title != "" {
		tx.Delete(storage.CFTitleIndex, indexKey(b.Title, b.ISBN))
	}
	if b.Author != "" {
		tx.Delete(storage.CFAuthorIndex, indexKey(b.Author, b.ISBN))
	}
	for _, kw := range b.KeywordList() {
		tx.Delete(storage.CFKeywordIndex, indexKey(kw, b.ISBN))
	}
}
