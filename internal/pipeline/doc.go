// Package pipeline is the path model: typed Job/Entity/WorkDir/Work/Output
// objects built from parsed template tokens, each able to re-render itself
// after token mutation.
//
// Entity templates follow a naming convention: the template for an entity
// kind is named "<kind>_entity_path" (asset_entity_path, shot_entity_path).
// Any file or sequence template other than "work" is treated as an output
// template; its name is the output type.
//
// Discovery (Entities, Works, Outputs) goes through the path cache so
// repeated queries never rescan disk, and through the tracker client when a
// project declares the tracking service authoritative. Works and Outputs
// are cached under their parent directory's path, so invalidating an
// ancestor key cascades to them.
package pipeline
