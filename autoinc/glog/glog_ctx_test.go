package glog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	reqid "github.com/JuhQ/MongoHelper/autoinc/util/request_id"
)

func TestFormatMetaTag(t *testing.T) {
	assert.Equal(t, "", formatMetaTag(context.Background()))

	ctx := reqid.Set(context.Background(), "abc123")
	assert.Equal(t, "request_id:abc123", formatMetaTag(ctx))
}
