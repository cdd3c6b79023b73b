package writer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graylayer/pdfredact/ir/raw"
)

func TestStampProducerCreatesInfoDictWhenAbsent(t *testing.T) {
	doc := &raw.Document{
		Objects: map[raw.ObjectRef]raw.Object{{Num: 1}: raw.Dict()},
		Trailer: raw.Dict(),
	}
	alloc := NewIDAllocator(doc)

	StampProducer(doc, alloc)

	infoObj, ok := doc.Trailer.Get(raw.NameLiteral("Info"))
	require.True(t, ok)
	ref, ok := infoObj.(raw.RefObj)
	require.True(t, ok)
	info, ok := doc.Objects[ref.Ref()].(*raw.DictObj)
	require.True(t, ok)
	producer, ok := info.Get(raw.NameLiteral("Producer"))
	require.True(t, ok)
	require.Equal(t, []byte(ProducerTag), producer.(raw.StringObj).Value())
}

func TestStampProducerOverwritesExistingIndirectInfoDict(t *testing.T) {
	info := raw.Dict()
	info.Set(raw.NameLiteral("Producer"), raw.Str([]byte("Some Other Tool")))
	info.Set(raw.NameLiteral("Title"), raw.Str([]byte("Keep Me")))
	infoRef := raw.ObjectRef{Num: 5}

	doc := &raw.Document{
		Objects: map[raw.ObjectRef]raw.Object{infoRef: info},
		Trailer: raw.Dict(),
	}
	doc.Trailer.Set(raw.NameLiteral("Info"), raw.Ref(5, 0))
	alloc := NewIDAllocator(doc)

	StampProducer(doc, alloc)

	producer, _ := info.Get(raw.NameLiteral("Producer"))
	require.Equal(t, []byte(ProducerTag), producer.(raw.StringObj).Value())
	title, _ := info.Get(raw.NameLiteral("Title"))
	require.Equal(t, []byte("Keep Me"), title.(raw.StringObj).Value())
}

func TestStampProducerNoOpWithoutTrailer(t *testing.T) {
	doc := &raw.Document{Objects: map[raw.ObjectRef]raw.Object{}}
	alloc := NewIDAllocator(doc)
	require.NotPanics(t, func() { StampProducer(doc, alloc) })
}
