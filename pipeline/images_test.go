package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graylayer/pdfredact/contentstream"
	"github.com/graylayer/pdfredact/ir/raw"
)

func TestResourceSubDictResolvesIndirectReference(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	xobjDict := raw.Dict()
	doc.Objects[raw.ObjectRef{Num: 5}] = xobjDict

	resources := raw.Dict()
	resources.Set(raw.NameLiteral("XObject"), raw.Ref(5, 0))

	got := resourceSubDict(doc, resources, "XObject")
	require.Same(t, xobjDict, got)
}

func TestResourceSubDictNilResources(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	require.Nil(t, resourceSubDict(doc, nil, "XObject"))
}

func TestRedactImagesSkipsNonImageSubtype(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}

	formStream := raw.NewStream(raw.Dict(), nil)
	formStream.Dict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral("Form"))

	xobjDict := raw.Dict()
	xobjDict.Set(raw.NameLiteral("Fm1"), formStream)
	resources := raw.Dict()
	resources.Set(raw.NameLiteral("XObject"), xobjDict)

	placements := []contentstream.XObjectPlacement{{Name: "Fm1"}}
	out := redactImages(context.Background(), doc, newTestPipeline(), resources, placements, nil, false)
	require.Nil(t, out)
}

func TestRedactImagesSkipsImageWithUnreadableMeta(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}

	imgStream := raw.NewStream(raw.Dict(), []byte{0xff})
	imgStream.Dict.Set(raw.NameLiteral("Subtype"), raw.NameLiteral("Image"))
	// Width/Height deliberately omitted: ReadMeta must fail.

	xobjDict := raw.Dict()
	xobjDict.Set(raw.NameLiteral("Im0"), imgStream)
	resources := raw.Dict()
	resources.Set(raw.NameLiteral("XObject"), xobjDict)

	placements := []contentstream.XObjectPlacement{{Name: "Im0"}}
	out := redactImages(context.Background(), doc, newTestPipeline(), resources, placements, nil, false)
	require.Nil(t, out)
}

func TestRedactImagesNoXObjectResourcesIsNoOp(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	resources := raw.Dict()
	out := redactImages(context.Background(), doc, newTestPipeline(), resources, nil, nil, false)
	require.Nil(t, out)
}
