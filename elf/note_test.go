package elf_test

import (
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"github.com/pattyshack/rvdis/elf"
	"github.com/pattyshack/rvdis/internal/elftest"
)

type NoteSuite struct{}

func TestNote(t *testing.T) {
	suite.RunTests(t, &NoteSuite{})
}

func (NoteSuite) TestNotes(t *testing.T) {
	forEachLayout(t, func(t *testing.T, builder *elftest.Builder) {
		abiTag := builder.EncodeNote(
			"GNU",
			uint32(elf.NoteTypeGNUABITag),
			builder.EncodeU32s(0, 3, 2, 0))

		buildID := builder.EncodeNote(
			"GNU",
			uint32(elf.NoteTypeGNUBuildID),
			[]byte{0xde, 0xad, 0xbe, 0xef, 0x01})

		goNote := builder.EncodeNote("Go", 4, []byte("abc"))

		content := append([]byte{}, abiTag...)
		content = append(content, buildID...)
		content = append(content, goNote...)

		builder.AddSection(
			elftest.Section{
				Name:      ".note",
				Type:      elf.SectionTypeNote,
				Alignment: 4,
				Content:   content,
			})

		file := parse(t, builder)

		section, err := file.FirstSectionByName(".note")
		expect.Nil(t, err)

		notes, ok := section.(*elf.NoteSection)
		expect.True(t, ok)
		expect.Equal(t, 3, len(notes.Entries))

		first := notes.Entries[0]
		expect.Equal(t, "GNU", first.Name)
		expect.Equal(t, 4, first.NameSize)
		expect.Equal(t, elf.NoteTypeGNUABITag, first.NoteType())
		expect.Equal(t, 16, len(first.Description))
		expect.NotNil(t, first.ABITag)
		expect.Equal(
			t,
			elf.GNUABITag{
				OperatingSystem: elf.NoteOperatingSystemLinux,
				Major:           3,
				Minor:           2,
				SubMinor:        0,
			},
			*first.ABITag)
		expect.Equal(t, "Linux 3.2.0", first.ABITag.String())
		expect.True(t, notes.ABITag() == first.ABITag)

		second := notes.Entries[1]
		expect.True(t, second.IsGNU())
		expect.Equal(t, elf.NoteTypeGNUBuildID, second.NoteType())
		expect.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x01}, second.Description)
		expect.True(t, second.ABITag == nil)

		id, ok := notes.BuildID()
		expect.True(t, ok)
		expect.Equal(t, "deadbeef01", id)

		// Name and description are both padded to 4 bytes.
		third := notes.Entries[2]
		expect.Equal(t, "Go", third.Name)
		expect.False(t, third.IsGNU())
		expect.Equal(t, 4, third.Type)
		expect.Equal(t, []byte("abc"), third.Description)
		expect.True(t, third.ABITag == nil)
	})
}

func (NoteSuite) TestShortABITag(t *testing.T) {
	builder := elftest.NewRISCV32()
	builder.AddSection(
		elftest.Section{
			Name: ".note.ABI-tag",
			Type: elf.SectionTypeNote,
			Content: builder.EncodeNote(
				"GNU",
				uint32(elf.NoteTypeGNUABITag),
				builder.EncodeU32s(0, 3)),
		})

	file := parse(t, builder)

	section, err := file.FirstSectionByType(elf.SectionTypeNote)
	expect.Nil(t, err)

	notes := section.(*elf.NoteSection)
	expect.Equal(t, 1, len(notes.Entries))
	expect.True(t, notes.ABITag() == nil)

	_, ok := notes.BuildID()
	expect.False(t, ok)
}

func (NoteSuite) TestOversizedNote(t *testing.T) {
	builder := elftest.NewRISCV32()
	builder.AddSection(
		elftest.Section{
			Name:    ".note",
			Type:    elf.SectionTypeNote,
			Content: builder.EncodeU32s(4, 64, 1, 0x00554e47),
		})

	file := parse(t, builder)

	_, err := file.FirstSectionByType(elf.SectionTypeNote)
	expect.Error(t, err, "exceeds section")
}
