package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentStoreLifecycle(t *testing.T) {
	store := NewDocumentStore()

	store.Open("file:///a.py", "x = 1\n", 1)
	doc := store.Get("file:///a.py")
	assert.NotNil(t, doc)
	assert.Equal(t, "x = 1\n", doc.Content)
	assert.Equal(t, 1, doc.Version)

	store.Update("file:///a.py", "x = 2\n", 2)
	doc = store.Get("file:///a.py")
	assert.Equal(t, "x = 2\n", doc.Content)
	assert.Equal(t, 2, doc.Version)

	store.Close("file:///a.py")
	assert.Nil(t, store.Get("file:///a.py"))
}

func TestURIConversion(t *testing.T) {
	assert.Equal(t, "/home/user/app.py", URIToPath("file:///home/user/app.py"))
	assert.Equal(t, "/home/user/app.py", URIToPath("/home/user/app.py"))
	assert.Equal(t, "file:///home/user/app.py", PathToURI("/home/user/app.py"))
	assert.Equal(t, "file:///home/user/app.py", PathToURI("file:///home/user/app.py"))
}
