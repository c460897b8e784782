package mcpserver

// OutputLayout describes how a converted import is laid out on disk, so that
// LLM consumers can navigate it.
const OutputLayout = `# Jimmy Output Layout

Every import produces one output folder. Its structure mirrors the notebooks
of the source application.

## Structure

- One directory per notebook, nested like the source notebooks.
- One ` + "`" + `.md` + "`" + ` file per note. File names are derived from the note title;
  characters that are not allowed on common file systems are replaced by ` + "`" + `_` + "`" + `.
- Notes with the same title and different content get a numeric suffix:
  ` + "`" + `Note.md` + "`" + `, ` + "`" + `Note_0001.md` + "`" + `, ` + "`" + `Note_0002.md` + "`" + `.
- Resources (attachments) are stored either in a global folder below the
  output root or next to the note, depending on the import settings.
- ` + "`" + `.jimmy/manifest.db` + "`" + ` records what was written.

## Links

- Links between notes and to resources are relative to the linking note,
  e.g. ` + "`" + `[other](./other.md)` + "`" + ` or ` + "`" + `![image](../resources/image.png)` + "`" + `.
- Paths with characters that are not URL-safe are wrapped in angle brackets:
  ` + "`" + `[note](<./my note.md>)` + "`" + `.
- Links whose target was not part of the import keep the original ID as
  destination. Use the ` + "`" + `list_unresolved_links` + "`" + ` tool to find them.

## Metadata

Depending on the import settings, notes start with YAML frontmatter holding
title, tags and dates. Tags are also available through the ` + "`" + `list_notes` + "`" + ` tool.
`
