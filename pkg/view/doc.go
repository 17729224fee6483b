/*
Package view adapts a template engine to a per-request view object.

A View holds three things: the resolved path of its template, a bag of
variables, and the engine it renders through. Callers configure it and then
render it:

	v := view.New(res, eng)
	if _, err := v.SetFilename("users/profile"); err != nil {
		return err
	}
	v.Set("user", user).SetMap(map[string]any{"title": "Profile"})
	out, err := v.Render()

Render copies every variable into the engine with Assign and then asks the
engine to Display the resolved path. Assignments land on the engine itself,
so two views sharing one engine see each other's variables; a Factory avoids
that by forking engines that implement engine.Forker.

Names are resolved with the resolver's Find(category, name, ext), using the
"views" category and "tpl" extension unless overridden.
*/
package view
