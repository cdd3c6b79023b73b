package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graylayer/pdfredact/filters"
	"github.com/graylayer/pdfredact/ir/raw"
)

func mediaBoxArray(llx, lly, urx, ury float64) *raw.ArrayObj {
	return raw.NewArray(
		raw.NumberFloat(llx), raw.NumberFloat(lly),
		raw.NumberFloat(urx), raw.NumberFloat(ury),
	)
}

func newTestPipeline() *filters.Pipeline {
	return filters.NewPipeline([]filters.Decoder{filters.NewFlateDecoder()}, filters.Limits{})
}

// buildFlatDoc builds a two-page document with a single Pages node
// carrying /MediaBox and /Resources that both pages inherit.
func buildFlatDoc(t *testing.T) *raw.Document {
	t.Helper()
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}

	resources := raw.Dict()
	resources.Set(raw.NameLiteral("Font"), raw.Dict())
	doc.Objects[raw.ObjectRef{Num: 10}] = resources

	pagesDict := raw.Dict()
	pagesDict.Set(raw.NameLiteral("Type"), raw.NameLiteral("Pages"))
	pagesDict.Set(raw.NameLiteral("MediaBox"), mediaBoxArray(0, 0, 612, 792))
	pagesDict.Set(raw.NameLiteral("Resources"), raw.Ref(10, 0))

	page1 := raw.Dict()
	page1.Set(raw.NameLiteral("Type"), raw.NameLiteral("Page"))
	page2 := raw.Dict()
	page2.Set(raw.NameLiteral("Type"), raw.NameLiteral("Page"))

	doc.Objects[raw.ObjectRef{Num: 1}] = page1
	doc.Objects[raw.ObjectRef{Num: 2}] = page2
	pagesDict.Set(raw.NameLiteral("Kids"), raw.NewArray(raw.Ref(1, 0), raw.Ref(2, 0)))
	doc.Objects[raw.ObjectRef{Num: 3}] = pagesDict

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Pages"), raw.Ref(3, 0))
	doc.Objects[raw.ObjectRef{Num: 4}] = catalog

	trailer := raw.Dict()
	trailer.Set(raw.NameLiteral("Root"), raw.Ref(4, 0))
	doc.Trailer = trailer

	return doc
}

func TestCollectPagesInheritsResourcesAndMediaBox(t *testing.T) {
	doc := buildFlatDoc(t)
	pages, err := CollectPages(context.Background(), doc, newTestPipeline())
	require.NoError(t, err)
	require.Len(t, pages, 2)

	for _, p := range pages {
		require.Equal(t, 0.0, p.MediaBox.LLX)
		require.Equal(t, 612.0, p.MediaBox.URX)
		require.NotNil(t, p.Resources)
		_, hasFont := p.Resources.Get(raw.NameLiteral("Font"))
		require.True(t, hasFont)
	}
	require.Equal(t, raw.ObjectRef{Num: 1}, pages[0].Ref)
	require.Equal(t, raw.ObjectRef{Num: 2}, pages[1].Ref)
}

func TestCollectPagesOwnMediaBoxOverridesInherited(t *testing.T) {
	doc := buildFlatDoc(t)
	page2 := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.DictObj)
	page2.Set(raw.NameLiteral("MediaBox"), mediaBoxArray(0, 0, 200, 300))

	pages, err := CollectPages(context.Background(), doc, newTestPipeline())
	require.NoError(t, err)
	require.Equal(t, 612.0, pages[0].MediaBox.URX)
	require.Equal(t, 200.0, pages[1].MediaBox.URX)
}

func TestCollectPagesMissingRootErrors(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}, Trailer: raw.Dict()}
	_, err := CollectPages(context.Background(), doc, newTestPipeline())
	require.Error(t, err)
}

func TestCollectPagesNoPagesErrors(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	pagesDict := raw.Dict()
	pagesDict.Set(raw.NameLiteral("Kids"), raw.NewArray())
	pagesDict.Set(raw.NameLiteral("MediaBox"), mediaBoxArray(0, 0, 612, 792))
	doc.Objects[raw.ObjectRef{Num: 1}] = pagesDict

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Pages"), raw.Ref(1, 0))
	doc.Objects[raw.ObjectRef{Num: 2}] = catalog

	trailer := raw.Dict()
	trailer.Set(raw.NameLiteral("Root"), raw.Ref(2, 0))
	doc.Trailer = trailer

	_, err := CollectPages(context.Background(), doc, newTestPipeline())
	require.Error(t, err)
}

func TestCollectPagesRejectsCyclicTree(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}

	pagesDict := raw.Dict()
	pagesDict.Set(raw.NameLiteral("MediaBox"), mediaBoxArray(0, 0, 612, 792))
	// A Pages node whose own Kids points back at itself.
	pagesDict.Set(raw.NameLiteral("Kids"), raw.NewArray(raw.Ref(1, 0)))
	doc.Objects[raw.ObjectRef{Num: 1}] = pagesDict

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Pages"), raw.Ref(1, 0))
	doc.Objects[raw.ObjectRef{Num: 2}] = catalog

	trailer := raw.Dict()
	trailer.Set(raw.NameLiteral("Root"), raw.Ref(2, 0))
	doc.Trailer = trailer

	_, err := CollectPages(context.Background(), doc, newTestPipeline())
	require.Error(t, err)
}

func TestCollectPagesRejectsMissingMediaBox(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	page := raw.Dict()
	page.Set(raw.NameLiteral("Type"), raw.NameLiteral("Page"))
	doc.Objects[raw.ObjectRef{Num: 1}] = page

	pagesDict := raw.Dict()
	pagesDict.Set(raw.NameLiteral("Kids"), raw.NewArray(raw.Ref(1, 0)))
	doc.Objects[raw.ObjectRef{Num: 2}] = pagesDict

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Pages"), raw.Ref(2, 0))
	doc.Objects[raw.ObjectRef{Num: 3}] = catalog

	trailer := raw.Dict()
	trailer.Set(raw.NameLiteral("Root"), raw.Ref(3, 0))
	doc.Trailer = trailer

	_, err := CollectPages(context.Background(), doc, newTestPipeline())
	require.Error(t, err)
}
